package errors

import "errors"

var (
	ErrZoneNotFound = errors.New("parking zone not found")

	ErrSpotNotFound = errors.New("parking spot not found")

	ErrSpotOccupied = errors.New("parking spot already occupied")

	ErrSpotFree = errors.New("parking spot is not occupied")

	ErrDuplicateSpotNumber = errors.New("spot number already exists in zone")
)
