package model

// PII type enum strings (spec.md §4.3). These are the canonical values
// stored in Finding.PIIType and PIICategory.Name.
const (
	PIIUSSSN           = "US_SSN"
	PIIUSITIN          = "US_ITIN"
	PIICreditCard      = "CREDIT_CARD"
	PIIUSBankNumber    = "US_BANK_NUMBER"
	PIIUSPassport      = "US_PASSPORT"
	PIIUSDriverLicense = "US_DRIVER_LICENSE"
	PIIPhoneNumber     = "PHONE_NUMBER"
	PIIEmailAddress    = "EMAIL_ADDRESS"
	PIIIPAddress       = "IP_ADDRESS"
	PIIURL             = "URL"
	PIIDateTime        = "DATE_TIME"
	PIIMACAddress      = "MAC_ADDRESS"
	PIIDeviceID        = "DEVICE_ID"
	PIIRoutingNumber   = "ROUTING_NUMBER"
	PIIBankAccount     = "BANK_ACCOUNT"
	PIICaseNumber      = "CASE_NUMBER"
	PIIMedicalRecord   = "MEDICAL_RECORD"
	PIIPerson          = "PERSON"
	PIILocation        = "LOCATION"
	PIILegalRoleName   = "LEGAL_ROLE_NAME"
)

// piiCategories is the static reference table seeded into the store.
// Severity levels are assigned per SPEC_FULL.md §4.3 and used as the
// detector's deduplication tie-break (spec.md §4.3 "Deduplication").
var piiCategories = []PIICategory{
	{Name: PIIUSSSN, Description: "U.S. Social Security Number", SeverityLevel: 5},
	{Name: PIIUSITIN, Description: "U.S. Individual Taxpayer Identification Number", SeverityLevel: 5},
	{Name: PIICreditCard, Description: "Credit or debit card number", SeverityLevel: 5},
	{Name: PIIUSBankNumber, Description: "U.S. bank account or routing identifier", SeverityLevel: 5},
	{Name: PIIUSPassport, Description: "U.S. passport number", SeverityLevel: 5},
	{Name: PIIUSDriverLicense, Description: "U.S. driver's license number", SeverityLevel: 4},
	{Name: PIIRoutingNumber, Description: "ABA bank routing number", SeverityLevel: 4},
	{Name: PIIBankAccount, Description: "Bank account number", SeverityLevel: 4},
	{Name: PIIMedicalRecord, Description: "Medical record number", SeverityLevel: 4},
	{Name: PIILegalRoleName, Description: "Named individual in a legal role (judge, witness, minor, etc.)", SeverityLevel: 4},
	{Name: PIIPerson, Description: "Named individual", SeverityLevel: 3},
	{Name: PIIDeviceID, Description: "Device identifier (e.g. IMEI)", SeverityLevel: 3},
	{Name: PIIPhoneNumber, Description: "Telephone number", SeverityLevel: 2},
	{Name: PIIEmailAddress, Description: "Email address", SeverityLevel: 2},
	{Name: PIIIPAddress, Description: "IP address", SeverityLevel: 2},
	{Name: PIICaseNumber, Description: "Court case number", SeverityLevel: 2},
	{Name: PIILocation, Description: "Named place or address", SeverityLevel: 2},
	{Name: PIIDateTime, Description: "Date or timestamp", SeverityLevel: 1},
	{Name: PIIMACAddress, Description: "Network hardware address", SeverityLevel: 1},
	{Name: PIIURL, Description: "Web address", SeverityLevel: 1},
}

// PIICategories returns the static reference table (a copy; callers may
// not mutate the package-level seed data).
func PIICategories() []PIICategory {
	out := make([]PIICategory, len(piiCategories))
	copy(out, piiCategories)
	return out
}

// severityByType is built once from piiCategories for SeverityOf lookups.
var severityByType = func() map[string]int {
	m := make(map[string]int, len(piiCategories))
	for _, c := range piiCategories {
		m[c.Name] = c.SeverityLevel
	}
	return m
}()

// SeverityOf returns the severity level (1-5) for a pii_type, or 0 if the
// type is unknown.
func SeverityOf(piiType string) int {
	return severityByType[piiType]
}
