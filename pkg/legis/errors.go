package legis

import "github.com/civiclens/legistry/pkg/errors"

func missingField(kind, field string) error {
	return errors.NewSnapshotError(kind, field, "missing required field")
}
