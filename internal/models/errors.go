package models

import "errors"

var ErrImmutableLedger = errors.New("karma ledger entries are immutable")
