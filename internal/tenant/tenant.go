package tenant

// Info is the read-only slice of a tenant the billing core needs: identity
// plus the room price used as the default invoice amount.
type Info struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	RoomID    *int64 `json:"room_id,omitempty"`
	RoomPrice int64  `json:"room_price"`
}
