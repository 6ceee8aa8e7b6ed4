package admin

import (
	"errors"
)

var (
	ErrPromotionConflict = errors.New("promotion already exists")
	ErrTrainConflict     = errors.New("train already exists")
)
