package repositories

import (
	"batepapo/errors"
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Badger runs update transactions under SSI: a heartbeat and the reaper
// touching the same participant at once surface as ErrConflict. The
// loser simply re-runs its read-then-write against the committed state.
const conflictRetries = 3

func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for range conflictRetries {
		err = db.Update(fn)
		if !stderrors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// mapStorage keeps domain sentinels intact and tags everything else as
// a storage failure.
func mapStorage(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		errors.ErrAlreadyPresent,
		errors.ErrNotFound,
		errors.ErrForbidden,
		errors.ErrValidation,
	} {
		if stderrors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err)
}
