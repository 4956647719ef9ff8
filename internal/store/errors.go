package store

import "errors"

var ErrStashEntryExists = errors.New("stash entry already exists")
