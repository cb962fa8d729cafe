package types

import "github.com/mExOms/mm-kernel/internal/errs"

func newInvalidQuote(msg string) error {
	return errs.Newf(errs.ErrInvalidQuote, "Quote.Validate", "%s", msg)
}
