package api

import (
	"errors"
	"strconv"

	"voltshare/internal/infra"
)

func isNotFound(err error) bool {
	return infra.IsKind(err, infra.KindNotFound)
}

func parsePositiveInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, errors.New("value must be positive")
	}
	return v, nil
}
