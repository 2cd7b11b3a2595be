package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

var ErrEmptyDecimalString = errors.New("empty decimal string")
