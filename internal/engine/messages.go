package engine

// Fixed Indonesian conversation texts.  Kept in one file, same as the prompt
// constants in the advisor.

const (
	// Greeting seeds every fresh session before the first question.
	Greeting = "Halo! Selamat datang di FeverScan. Saya akan membantu Anda menilai gejala-gejala yang mungkin terkait dengan demam berdarah (dengue fever). Mari kita mulai dengan beberapa pertanyaan."

	// FollowupInvitation is appended right after the diagnosis text.
	FollowupInvitation = "Anda dapat bertanya lebih lanjut tentang demam berdarah atau memulai tes baru."

	// RestartSentinel restarts the questionnaire when submitted as a
	// follow-up, compared case-insensitively after trimming.
	RestartSentinel = "mulai tes baru"

	// saveFailedNotice is shown when the diagnosis or answer could not be
	// persisted; the conversation continues regardless.
	saveFailedNotice = "Catatan: hasil ini tidak dapat disimpan ke riwayat saat ini."
)
