package models

import "strings"

// ResidentProfile is the resident record from /api/resident/profile.
type ResidentProfile struct {
	MongoID       FlexString `json:"_id"`
	ID            FlexString `json:"id"`
	FirstName     string     `json:"firstName"`
	MiddleName    string     `json:"middleName,omitempty"`
	LastName      string     `json:"lastName"`
	Suffix        string     `json:"suffix,omitempty"`
	Email         string     `json:"email"`
	ContactNumber string     `json:"contactNumber"`
	Address       string     `json:"address"`
	Purok         string     `json:"purok,omitempty"`
	CivilStatus   string     `json:"civilStatus,omitempty"`
	Gender        string     `json:"gender,omitempty"`
	BirthDate     FlexTime   `json:"birthDate"`
	AvatarURL     string     `json:"profileImage,omitempty"`
}

// Key returns the resident's source id.
func (p ResidentProfile) Key() string {
	id, _ := FirstPresent(p.MongoID, p.ID)
	return id
}

// FullName joins the name parts, skipping blanks.
func (p ResidentProfile) FullName() string {
	parts := make([]string, 0, 4)
	for _, part := range []string{p.FirstName, p.MiddleName, p.LastName, p.Suffix} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

// ProfileUpdate is the body accepted by PUT /api/resident/profile.
type ProfileUpdate struct {
	FirstName     string `json:"firstName"`
	MiddleName    string `json:"middleName"`
	LastName      string `json:"lastName"`
	Suffix        string `json:"suffix"`
	Email         string `json:"email"`
	ContactNumber string `json:"contactNumber"`
	Address       string `json:"address"`
	Purok         string `json:"purok"`
	CivilStatus   string `json:"civilStatus"`
	Gender        string `json:"gender"`
}

// HouseholdMember is one person listed under a household.
type HouseholdMember struct {
	Name         string     `json:"name"`
	Relationship string     `json:"relationship"`
	Age          FlexNumber `json:"age"`
}

// Household is the resident's household record.
type Household struct {
	MongoID         FlexString        `json:"_id"`
	HouseholdNumber FlexString        `json:"householdNumber"`
	Head            string            `json:"head"`
	Address         string            `json:"address"`
	Members         []HouseholdMember `json:"members"`
}

// Complaint is a resident-filed complaint or blotter entry.
type Complaint struct {
	MongoID     FlexString `json:"_id"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CreatedAt   FlexTime   `json:"createdAt"`
}
