package models

// Reminder is a medication intake reminder. Reminders are independent records:
// once created from an analysis there is no back-reference to it.
type Reminder struct {
	ID           string   `json:"id"`
	MedicineName string   `json:"medicineName"`
	Dosage       string   `json:"dosage"`
	Time         string   `json:"time"` // time-of-day label, e.g. "08:00 AM"
	Days         []string `json:"days"`
	IsActive     bool     `json:"isActive"`
}

// FamilyMember is a contact in the user's family circle.
type FamilyMember struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Relation       string `json:"relation"`
	Phone          string `json:"phone"`
	Notifications  bool   `json:"notifications"`
	LocationAccess bool   `json:"locationAccess"`
}
