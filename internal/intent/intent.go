package intent

// Intent is the dialogue act detected in a caller utterance.
type Intent string

const (
	Appointment  Intent = "appointment"
	Complaint    Intent = "complaint"
	Pricing      Intent = "pricing"
	Cancellation Intent = "cancellation"
	Greeting     Intent = "greeting"
	Farewell     Intent = "farewell"
	Escalation   Intent = "escalation"
	Thanks       Intent = "thanks"
	Unknown      Intent = "unknown"
)

type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

type Language string

const (
	LanguageTR Language = "tr"
	LanguageEN Language = "en"
)

// Result is the immutable classification of a single utterance.
type Result struct {
	Intent     Intent     `json:"intent"`
	Confidence Confidence `json:"confidence"`
	Language   Language   `json:"language"`
}
