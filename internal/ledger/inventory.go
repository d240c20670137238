package ledger

import "hostel-ledger-backend/internal/model"

// ReserveBed takes one bed out of the room.
func ReserveBed(room *model.Room) error {
	if room.BedsAvailable <= 0 {
		return ErrNoCapacity
	}
	room.BedsAvailable--
	return nil
}

// ReleaseBed puts one bed back, never beyond the room size.
func ReleaseBed(room *model.Room) error {
	if room.BedsAvailable >= room.RoomSize {
		return ErrCapacityExceeded
	}
	room.BedsAvailable++
	return nil
}

// CapacityValid reports whether 0 <= beds available <= room size.
func CapacityValid(room model.Room) bool {
	return room.BedsAvailable >= 0 && room.BedsAvailable <= room.RoomSize
}
