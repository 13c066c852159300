// Package history is the append-only audit log of inventory changes. Records
// are written by the catalog repository and never modified afterwards.
package history

import "time"

// SystemActor is recorded when a change happens with no active session.
const SystemActor = "Sistema"

type Action string

const (
	ActionAdd       Action = "ADD"
	ActionUpdate    Action = "UPDATE"
	ActionDelete    Action = "DELETE"
	ActionIncrement Action = "INCREMENT"
	ActionDecrement Action = "DECREMENT"
)

// Label is the display name shown in the history table.
func (a Action) Label() string {
	switch a {
	case ActionAdd:
		return "Agregar"
	case ActionUpdate:
		return "Actualizar"
	case ActionDelete:
		return "Eliminar"
	case ActionIncrement:
		return "Incrementar"
	case ActionDecrement:
		return "Reducir"
	default:
		return string(a)
	}
}

// Record describes one catalog mutation. ProductName is a snapshot taken at
// the time of the change.
type Record struct {
	Timestamp   time.Time `json:"timestamp" csv:"timestamp"`
	Username    string    `json:"username" csv:"username"`
	ProductID   int       `json:"productId" csv:"product_id"`
	ProductName string    `json:"productName" csv:"product_name"`
	Action      Action    `json:"action" csv:"action"`
	OldQuantity int       `json:"oldQuantity" csv:"old_quantity"`
	NewQuantity int       `json:"newQuantity" csv:"new_quantity"`
}

// Amount is the size of a stock adjustment. It is only defined for
// INCREMENT and DECREMENT records.
func (r Record) Amount() (int, bool) {
	if r.Action != ActionIncrement && r.Action != ActionDecrement {
		return 0, false
	}
	d := r.NewQuantity - r.OldQuantity
	if d < 0 {
		d = -d
	}
	return d, true
}
