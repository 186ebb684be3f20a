package container

import (
	"github.com/tesserdb/tesser/internal/errors"
)

// Error predicates for classifying failures without reaching into the
// error's internals.

// IsModeError reports a commit-mode violation, such as commit in
// autocommit mode or get-for-update outside a transaction.
func IsModeError(err error) bool { return errors.HasCode(err, errors.CodeModeError) }

// IsTimeout reports an expired transaction or an exhausted lock wait.
// The transaction, if any, has already been rolled back.
func IsTimeout(err error) bool { return errors.HasCode(err, errors.CodeTimeout) }

// IsClosed reports an operation on a closed session.
func IsClosed(err error) bool { return errors.HasCode(err, errors.CodeClosed) }

// IsStaleState reports that the container was dropped, recreated or had
// its schema changed underneath the session.
func IsStaleState(err error) bool { return errors.HasCode(err, errors.CodeStaleState) }

// IsKeyNotSupported reports a key-addressed operation on a keyless
// container.
func IsKeyNotSupported(err error) bool { return errors.HasCode(err, errors.CodeKeyNotSupported) }

// IsTypeMismatch reports a value that does not conform to its column.
func IsTypeMismatch(err error) bool { return errors.HasCode(err, errors.CodeTypeMismatch) }

// IsIndexConflict reports an index definition colliding with an existing
// one under the dedup rules.
func IsIndexConflict(err error) bool { return errors.HasCode(err, errors.CodeIndexConflict) }

// IsTriggerValidation reports an invalid or conflicting trigger
// definition.
func IsTriggerValidation(err error) bool { return errors.HasCode(err, errors.CodeTriggerValidation) }

// IsParseError reports a malformed query statement, surfaced at fetch.
func IsParseError(err error) bool { return errors.HasCode(err, errors.CodeParseError) }

// IsBlobFreed reports use of a blob handle after Free.
func IsBlobFreed(err error) bool { return errors.HasCode(err, errors.CodeBlobFreed) }

// IsRetryable reports whether retrying the operation can reasonably
// succeed.
func IsRetryable(err error) bool { return errors.IsRetryable(err) }
