package ingest

import "strings"

// Candidate header labels per logical field. The source system has
// reshuffled and renamed columns across export versions, so each field is
// resolved through an ordered synonym list; the first non-empty cell wins.
var customerLabels = struct {
	membership []string
	name       []string
	gender     []string
	phone      []string
	email      []string
	birthDate  []string
	address    []string
	occupation []string
	medical    []string
	joinDate   []string
}{
	membership: []string{"Membership Number", "Membership No", "Membership No.", "Member No", "Member ID"},
	name:       []string{"Customer Name", "Name", "Full Name"},
	gender:     []string{"Gender", "Sex"},
	phone:      []string{"Contact Number", "Contact No", "Phone", "Phone Number", "Mobile", "Mobile No", "HP No"},
	email:      []string{"Email", "Email Address", "E-mail"},
	birthDate:  []string{"Date of Birth", "DOB", "Birth Date", "Birthday"},
	address:    []string{"Address", "Home Address"},
	occupation: []string{"Occupation", "Job"},
	medical:    []string{"Medical History", "Medical Notes", "Allergies", "Remarks"},
	joinDate:   []string{"Join Date", "Registration Date", "Member Since", "Created Date"},
}

// CleanCustomers normalizes customer-info rows. Rejection rules: a blank
// membership number or blank name drops the row; a membership number seen
// earlier in the same run drops the later row (first occurrence wins,
// duplicates are never merged).
func CleanCustomers(rows []RawRow) ([]Customer, RejectStats) {
	records := make([]Customer, 0, len(rows))
	rejects := make(RejectStats)
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		membership := pick(row, customerLabels.membership...)
		if membership == "" {
			rejects.add(RejectMissingKey)
			continue
		}
		if seen[membership] {
			rejects.add(RejectDuplicateKey)
			continue
		}

		name := strings.TrimSpace(pick(row, customerLabels.name...))
		if name == "" {
			rejects.add(RejectMissingRequired)
			continue
		}

		gender := NormalizeGender(pick(row, customerLabels.gender...))
		if gender == "" {
			gender = InferGender(name)
		}

		seen[membership] = true
		records = append(records, Customer{
			MembershipNo: membership,
			Name:         name,
			Gender:       gender,
			Phone:        ParsePhone(pick(row, customerLabels.phone...)),
			Email:        strings.TrimSpace(pick(row, customerLabels.email...)),
			BirthDate:    ParseDate(pick(row, customerLabels.birthDate...)),
			Address:      strings.TrimSpace(pick(row, customerLabels.address...)),
			Occupation:   strings.TrimSpace(pick(row, customerLabels.occupation...)),
			MedicalNotes: strings.TrimSpace(pick(row, customerLabels.medical...)),
			JoinDate:     ParseDate(pick(row, customerLabels.joinDate...)),
		})
	}

	return records, rejects
}
