package model

// ConsoleType groups interchangeable units (e.g. "PS5", "Switch").
// Holds are requested per console type and the manager picks any
// free unit of that type.
//
// Fields:
//  ID     – primary key identifier.
//  Name   – display name of the console type.
//  Active – whether new holds may be placed on this type.
type ConsoleType struct {
	ID     uint64 `db:"id" json:"id"`         // console_types.id
	Name   string `db:"name" json:"name"`     // console_types.name
	Active bool   `db:"active" json:"active"` // console_types.active
}

// ConsoleAvailability is a console type together with the number of
// units that could be held right now.
type ConsoleAvailability struct {
	ConsoleType
	TotalUnits     int `db:"total_units" json:"total_units"`
	AvailableUnits int `db:"available_units" json:"available_units"`
}

// Unit is one physical box of a console type.  Active is owned by
// inventory administration; Holding is owned by the lease manager and
// mirrors "a non-expired hold references this unit".
//
// Fields:
//  ID            – primary key identifier.
//  ConsoleTypeID – console type this unit belongs to.
//  Label         – inventory label printed on the box.
//  Active        – in service or not.
//  Holding       – currently leased by a hold.
type Unit struct {
	ID            uint64 `db:"id"`              // units.id
	ConsoleTypeID uint64 `db:"console_type_id"` // units.console_type_id
	Label         string `db:"label"`           // units.label
	Active        bool   `db:"active"`          // units.active
	Holding       bool   `db:"holding"`         // units.holding
}

// Game is a physical game copy that can be attached to a booking.
type Game struct {
	ID      uint64 `db:"id"`      // games.id
	Title   string `db:"title"`   // games.title
	Active  bool   `db:"active"`  // games.active
	Holding bool   `db:"holding"` // games.holding
}

// Accessory is a physical accessory set (controllers, headset, ...).
type Accessory struct {
	ID      uint64 `db:"id"`      // accessories.id
	Name    string `db:"name"`    // accessories.name
	Active  bool   `db:"active"`  // accessories.active
	Holding bool   `db:"holding"` // accessories.holding
}
