package services

import (
	"errors"

	"github.com/yoockh/yootravel/internal/utils"
)

// storeErr maps a repository error onto the service taxonomy: ErrNotFound
// becomes CodeNotFound, anything else means the store could not answer.
func storeErr(op, msg string, err error) error {
	if errors.Is(err, utils.ErrNotFound) {
		return utils.E(utils.CodeNotFound, op, msg, err)
	}
	return utils.E(utils.CodeUnavailable, op, msg, err)
}
