// Package appointments manages the salon's booking calendar.
package appointments

// StatusPending is the state of a freshly booked appointment.
const StatusPending = "Pendiente"

// Appointment is a booked client visit. Fecha and Hora are kept as entered.
type Appointment struct {
	ID      string `json:"id"`
	Branch  string `json:"sede"`
	Fecha   string `json:"fecha"`
	Hora    string `json:"hora"`
	Client  string `json:"cliente"`
	Phone   string `json:"telefono"`
	Service string `json:"servicio"`
	Notes   string `json:"notas"`
	Status  string `json:"estado"`
}

// Patch carries the fields of a partial update; nil fields are left untouched.
type Patch struct {
	Fecha   *string `json:"fecha"`
	Hora    *string `json:"hora"`
	Client  *string `json:"cliente"`
	Phone   *string `json:"telefono"`
	Service *string `json:"servicio"`
	Notes   *string `json:"notas"`
	Status  *string `json:"estado"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Fecha == nil && p.Hora == nil && p.Client == nil && p.Phone == nil &&
		p.Service == nil && p.Notes == nil && p.Status == nil
}

// Apply returns a with the patch applied.
func (p Patch) Apply(a Appointment) Appointment {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&a.Fecha, p.Fecha)
	set(&a.Hora, p.Hora)
	set(&a.Client, p.Client)
	set(&a.Phone, p.Phone)
	set(&a.Service, p.Service)
	set(&a.Notes, p.Notes)
	set(&a.Status, p.Status)
	return a
}

// Alert is a dashboard notice.
type Alert struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
