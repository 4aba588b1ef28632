package usecase

import "errors"

var (
	ErrInvalidPrefetch  = errors.New("invalid prefetch request")
	ErrPrefetchTooLarge = errors.New("prefetch request exceeds tile budget")
)
