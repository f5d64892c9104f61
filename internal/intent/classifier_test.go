package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_Classify_Turkish(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name       string
		utterance  string
		intent     Intent
		confidence Confidence
	}{
		{
			name:       "appointment with exact keyword",
			utterance:  "yarın randevu almak istiyorum",
			intent:     Appointment,
			confidence: High,
		},
		{
			name:       "appointment with inflected stem",
			utterance:  "randevumu değiştirmek istiyorum",
			intent:     Appointment,
			confidence: Medium,
		},
		{
			name:       "complaint",
			utterance:  "bir şikayetim var, ürün çalışmıyor",
			intent:     Complaint,
			confidence: Medium,
		},
		{
			name:       "pricing with phrase",
			utterance:  "bu hizmet ne kadar tutuyor",
			intent:     Pricing,
			confidence: High,
		},
		{
			name:       "cancellation",
			utterance:  "aboneliğimi iptal etmek istiyorum",
			intent:     Cancellation,
			confidence: High,
		},
		{
			name:       "escalation",
			utterance:  "beni bir yetkili ile görüştürün lütfen",
			intent:     Escalation,
			confidence: High,
		},
		{
			name:       "greeting",
			utterance:  "merhaba iyi günler",
			intent:     Greeting,
			confidence: High,
		},
		{
			name:       "thanks",
			utterance:  "çok teşekkür ederim",
			intent:     Thanks,
			confidence: High,
		},
		{
			name:       "unmatched input",
			utterance:  "asdf qwerty lorem ipsum",
			intent:     Unknown,
			confidence: Low,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(tt.utterance, LanguageTR)
			assert.Equal(t, tt.intent, result.Intent)
			assert.Equal(t, tt.confidence, result.Confidence)
			assert.Equal(t, LanguageTR, result.Language)
		})
	}
}

func TestClassifier_Classify_DetectsTurkish(t *testing.T) {
	c := NewClassifier()

	result := c.Classify("yarın randevu almak istiyorum", "")

	assert.Equal(t, Appointment, result.Intent)
	assert.Equal(t, High, result.Confidence)
	assert.Equal(t, LanguageTR, result.Language)
}

func TestClassifier_Classify_English(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		utterance string
		intent    Intent
	}{
		{"i would like to book an appointment", Appointment},
		{"i have a complaint about my last visit", Complaint},
		{"how much does the premium plan cost", Pricing},
		{"please cancel my subscription", Cancellation},
		{"let me speak to a manager", Escalation},
		{"hello there", Greeting},
		{"goodbye and thanks", Farewell}, // farewell outranks thanks in scan order
		{"thank you so much", Thanks},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			result := c.Classify(tt.utterance, LanguageEN)
			assert.Equal(t, tt.intent, result.Intent)
		})
	}
}

func TestDetectLanguage_SharedLoanwords(t *testing.T) {
	c := NewClassifier()

	// "problem" exists in both tables; without a hint an English
	// sentence must stay English and still classify as a complaint.
	result := c.Classify("I have a problem with my invoice", "")
	assert.Equal(t, LanguageEN, result.Language)
	assert.Equal(t, Complaint, result.Intent)

	// Turkish letters anywhere still win.
	assert.Equal(t, LanguageTR, DetectLanguage("ödemede problem var"))

	// Unambiguous ASCII Turkish keywords still detect as Turkish.
	assert.Equal(t, LanguageTR, DetectLanguage("randevu almak istiyorum"))
}

func TestClassifier_Classify_PriorityOrderIsDeterministic(t *testing.T) {
	c := NewClassifier()

	// Contains both appointment and pricing keywords; appointment is
	// scanned first and must win every time.
	for i := 0; i < 10; i++ {
		result := c.Classify("randevu fiyatı ne kadar", LanguageTR)
		assert.Equal(t, Appointment, result.Intent)
	}
}

func TestClassifier_Classify_ShortFragments(t *testing.T) {
	c := NewClassifier()

	for _, utterance := range []string{"", "a", "ab", "e m", "  "} {
		result := c.Classify(utterance, LanguageTR)
		assert.Equal(t, Unknown, result.Intent, "utterance %q", utterance)
		assert.Equal(t, Low, result.Confidence)
	}
}

func TestSafeResponse(t *testing.T) {
	assert.NotEmpty(t, SafeResponse(Appointment, LanguageTR))
	assert.NotEmpty(t, SafeResponse(Unknown, LanguageEN))

	// Unknown language falls back to Turkish.
	assert.Equal(t, safeResponses[LanguageTR][Greeting], SafeResponse(Greeting, Language("de")))

	// Safety: canned pricing reply never quotes a figure.
	assert.NotContains(t, SafeResponse(Pricing, LanguageTR), "₺")
	assert.NotContains(t, SafeResponse(Pricing, LanguageEN), "$")
}
