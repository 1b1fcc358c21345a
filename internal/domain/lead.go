package domain

// Lead is a contact-form submission.
type Lead struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Message    string `json:"message"`
	SMSConsent bool   `json:"sms_consent"`
	Language   string `json:"language"`
	Source     string `json:"source"`
	Status     string `json:"status"`
}

// Booking is a service-booking request.
type Booking struct {
	CustomerName        string  `json:"customer_name"`
	Email               string  `json:"email"`
	Phone               string  `json:"phone"`
	ServiceType         string  `json:"service_type"`
	PreferredDate       string  `json:"preferred_date"`
	PreferredTime       string  `json:"preferred_time"`
	Address             string  `json:"address"`
	SpecialInstructions string  `json:"special_instructions"`
	EstimatedPrice      float64 `json:"estimated_price,omitempty"`
}
