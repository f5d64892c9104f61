package intent

// patternSet holds the keywords for one intent in one language. Exact
// keywords carry high confidence when they appear as a full token (or a
// multi-word phrase); stems carry lower confidence on prefix or substring
// matches.
type patternSet struct {
	intent Intent
	exact  []string
	stems  []string
}

// Loanwords spelled identically in English. They stay in the Turkish
// table for classification, but must not mark an utterance as Turkish
// on their own during language detection.
var sharedLoanwords = map[string]struct{}{
	"problem": {},
}

// Tables are scanned in this fixed order; the first intent with a matching
// pattern wins, which keeps mixed-keyword utterances deterministic.
var patternTable = map[Language][]patternSet{
	LanguageTR: {
		{
			intent: Appointment,
			exact:  []string{"randevu", "görüşme", "rezervasyon"},
			stems:  []string{"randev", "tarih", "saat ayarla"},
		},
		{
			intent: Complaint,
			exact:  []string{"şikayet", "sorun", "problem", "memnun değil", "arıza"},
			stems:  []string{"şikay", "çalışmıyor", "bozuk"},
		},
		{
			intent: Pricing,
			exact:  []string{"fiyat", "ücret", "ne kadar", "kaç para", "tarife"},
			stems:  []string{"fiyat", "ücret"},
		},
		{
			intent: Cancellation,
			exact:  []string{"iptal", "vazgeçtim", "istemiyorum"},
			stems:  []string{"iptal", "vazgeç"},
		},
		{
			intent: Escalation,
			exact:  []string{"yetkili", "müdür", "temsilci", "operatör", "gerçek biri"},
			stems:  []string{"yetkili", "temsilci"},
		},
		{
			intent: Greeting,
			exact:  []string{"merhaba", "selam", "günaydın", "iyi günler", "alo"},
			stems:  []string{"merhab"},
		},
		{
			intent: Farewell,
			exact:  []string{"hoşça kal", "görüşürüz", "iyi akşamlar", "kapatıyorum"},
			stems:  []string{"hoşça", "görüşürüz"},
		},
		{
			intent: Thanks,
			exact:  []string{"teşekkür", "teşekkürler", "sağ ol", "sağolun"},
			stems:  []string{"teşekkür", "sağol"},
		},
	},
	LanguageEN: {
		{
			intent: Appointment,
			exact:  []string{"appointment", "booking", "reschedule", "schedule"},
			stems:  []string{"appoint", "book"},
		},
		{
			intent: Complaint,
			exact:  []string{"complaint", "problem", "issue", "not working", "broken"},
			stems:  []string{"complain", "unhappy", "dissatisf"},
		},
		{
			intent: Pricing,
			exact:  []string{"price", "cost", "how much", "fee", "pricing"},
			stems:  []string{"pric", "charg"},
		},
		{
			intent: Cancellation,
			exact:  []string{"cancel", "cancellation", "refund"},
			stems:  []string{"cancel"},
		},
		{
			intent: Escalation,
			exact:  []string{"manager", "supervisor", "representative", "real person", "human"},
			stems:  []string{"escalat", "agent"},
		},
		{
			intent: Greeting,
			exact:  []string{"hello", "hi", "good morning", "good afternoon", "hey"},
			stems:  []string{"greeting"},
		},
		{
			intent: Farewell,
			exact:  []string{"goodbye", "bye", "see you", "good night"},
			stems:  []string{"farewell"},
		},
		{
			intent: Thanks,
			exact:  []string{"thanks", "thank you", "appreciated"},
			stems:  []string{"thank"},
		},
	},
}
