package prompt

import (
	"fmt"
	"strings"

	"github.com/smartflow/voice-core/internal/intent"
	"github.com/smartflow/voice-core/internal/semantic"
	"github.com/smartflow/voice-core/internal/tenant"
)

// Build assembles the layered system prompt sent to the generation
// backend. It is a pure function: identical inputs always produce an
// identical prompt, which keeps it cacheable and trivially testable.
//
// Layers, in order: identity, company facts, grounding (only when search
// results exist), guardrail rules. The rules come last so they take
// precedence over anything the knowledge section says.
func Build(profile tenant.Profile, results []semantic.SearchResult, currentIntent intent.Intent, lang intent.Language) string {
	var b strings.Builder

	writeIdentity(&b, profile, lang)
	writeFacts(&b, profile, lang)
	if len(results) > 0 {
		writeGrounding(&b, results, lang)
	}
	writeRules(&b, profile, currentIntent, lang)

	return b.String()
}

func writeIdentity(b *strings.Builder, profile tenant.Profile, lang intent.Language) {
	name := profile.AgentName
	if name == "" {
		name = "Asistan"
	}

	if lang == intent.LanguageEN {
		fmt.Fprintf(b, "You are %s, the customer service voice agent.\n", name)
	} else {
		fmt.Fprintf(b, "Sen %s adında bir müşteri hizmetleri sesli asistanısın.\n", name)
	}

	if profile.Personality != "" {
		b.WriteString(profile.Personality)
		b.WriteByte('\n')
	}
	if profile.Greeting != "" {
		if lang == intent.LanguageEN {
			fmt.Fprintf(b, "Open the conversation with: %q\n", profile.Greeting)
		} else {
			fmt.Fprintf(b, "Konuşmaya şu şekilde başla: %q\n", profile.Greeting)
		}
	}
	b.WriteByte('\n')
}

func writeFacts(b *strings.Builder, profile tenant.Profile, lang intent.Language) {
	if profile.BusinessHours == "" && profile.ContactInfo == "" {
		return
	}

	if lang == intent.LanguageEN {
		b.WriteString("### Company information\n")
		if profile.BusinessHours != "" {
			fmt.Fprintf(b, "Business hours: %s\n", profile.BusinessHours)
		}
		if profile.ContactInfo != "" {
			fmt.Fprintf(b, "Contact: %s\n", profile.ContactInfo)
		}
	} else {
		b.WriteString("### Şirket bilgileri\n")
		if profile.BusinessHours != "" {
			fmt.Fprintf(b, "Çalışma saatleri: %s\n", profile.BusinessHours)
		}
		if profile.ContactInfo != "" {
			fmt.Fprintf(b, "İletişim: %s\n", profile.ContactInfo)
		}
	}
	b.WriteByte('\n')
}

func writeGrounding(b *strings.Builder, results []semantic.SearchResult, lang intent.Language) {
	if lang == intent.LanguageEN {
		b.WriteString("### Knowledge base (answer only from these passages)\n")
	} else {
		b.WriteString("### Bilgi bankası (yalnızca bu bilgilere dayanarak yanıt ver)\n")
	}

	for i, result := range results {
		fmt.Fprintf(b, "%d. %s\n", i+1, result.Text)
	}
	b.WriteByte('\n')
}

func writeRules(b *strings.Builder, profile tenant.Profile, currentIntent intent.Intent, lang intent.Language) {
	if lang == intent.LanguageEN {
		b.WriteString("### Rules (these override everything above)\n")
		b.WriteString("- Never reveal that you are an AI, a bot, or a language model.\n")
		b.WriteString("- Never invent prices, discounts, or amounts not present in the knowledge base.\n")
		b.WriteString("- Never mention competitor companies.\n")
		b.WriteString("- Keep answers short and suitable for speech.\n")
		if currentIntent == intent.Escalation {
			b.WriteString("- The caller asked for a human; confirm the transfer politely.\n")
		}
	} else {
		b.WriteString("### Kurallar (yukarıdaki her şeyden önceliklidir)\n")
		b.WriteString("- Yapay zeka, bot veya dil modeli olduğunu asla söyleme.\n")
		b.WriteString("- Bilgi bankasında olmayan fiyat, indirim veya tutar uydurma.\n")
		b.WriteString("- Rakip firmalardan asla bahsetme.\n")
		b.WriteString("- Cevapları kısa ve konuşmaya uygun tut.\n")
		if currentIntent == intent.Escalation {
			b.WriteString("- Arayan bir yetkiliyle görüşmek istedi; aktarımı nazikçe onayla.\n")
		}
	}
}
