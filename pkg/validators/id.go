package validators

import (
	"errors"

	"grandeva/store-api/pkg/util"
)

var ErrIDInvalid = errors.New("invalid id provided")

func IDValidator(id string) error {
	if !util.IsID(id) {
		return ErrIDInvalid
	}

	return nil
}
