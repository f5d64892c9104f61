package intent

// Canned replies returned when the guardrail rejects a generated response
// or the backend is unavailable. Phrasing mirrors the live agents'
// scripts; never contains prices or competitor references.
var safeResponses = map[Language]map[Intent]string{
	LanguageTR: {
		Appointment:  "Randevu talebinizi aldım. Hangi tarih ve saat sizin için uygun olur?",
		Complaint:    "Yaşadığınız sorunu anlıyorum. Detayları alabilir miyim?",
		Pricing:      "Güncel fiyat bilgisi için sizi bir müşteri temsilcimize aktarabilirim.",
		Cancellation: "İptal talebinizi not aldım. İşleminizi hemen başlatıyorum.",
		Greeting:     "Merhaba! Size nasıl yardımcı olabilirim?",
		Farewell:     "Bizi aradığınız için teşekkür ederiz. İyi günler dileriz.",
		Escalation:   "Sizi bir müşteri temsilcisine aktarıyorum, lütfen hatta kalın.",
		Thanks:       "Rica ederim. Başka bir konuda yardımcı olabilir miyim?",
		Unknown:      "Anlıyorum, size nasıl yardımcı olabilirim?",
	},
	LanguageEN: {
		Appointment:  "I've noted your appointment request. Which date and time would work for you?",
		Complaint:    "I understand the problem you're describing. Could you share the details?",
		Pricing:      "For up-to-date pricing I can connect you with one of our representatives.",
		Cancellation: "I've noted your cancellation request and will start processing it right away.",
		Greeting:     "Hello! How can I help you today?",
		Farewell:     "Thank you for calling. Have a great day.",
		Escalation:   "I'm transferring you to a customer representative, please hold the line.",
		Thanks:       "You're welcome. Is there anything else I can help with?",
		Unknown:      "I see. How can I help you with that?",
	},
}

// SafeResponse returns the canned reply for an intent and language,
// falling back to the unknown-intent reply. Never returns an empty string.
func SafeResponse(in Intent, lang Language) string {
	table, ok := safeResponses[lang]
	if !ok {
		table = safeResponses[LanguageTR]
	}
	if reply, ok := table[in]; ok {
		return reply
	}
	return table[Unknown]
}
