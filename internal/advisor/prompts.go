package advisor

// prompts.go holds the Indonesian prompt templates and the canned fallback
// blocks.  Keeping these in one file makes them easy to tweak without
// touching the calling discipline.

const (
	// diagnosisPromptHeader frames the symptom summary for the model and
	// pins the output shape.
	diagnosisPromptHeader = "Berdasarkan jawaban pasien dan data referensi berikut, analisis kemungkinan demam berdarah (dengue fever).\n\n" +
		"Jawaban pasien:\n"

	// diagnosisPromptFooter requests the structured Indonesian answer.
	diagnosisPromptFooter = "\nBerikan diagnosis dalam Bahasa Indonesia dengan informasi berikut:\n" +
		"1. Kemungkinan demam berdarah (Tinggi, Sedang, Rendah)\n" +
		"2. Tindakan yang direkomendasikan berdasarkan gejala\n" +
		"3. Tanda-tanda peringatan penting yang perlu diperhatikan\n" +
		"4. Kapan harus segera mencari bantuan medis\n"

	// followupPromptHeader keeps follow-up answers on topic and in
	// Indonesian, with the professional-care disclaimer.
	followupPromptHeader = "Jawab pertanyaan berikut tentang demam berdarah dalam Bahasa Indonesia. " +
		"Batasi jawaban pada topik demam berdarah (dengue); jika pertanyaan tidak berkaitan, arahkan kembali percakapan ke topik demam berdarah dengan sopan.\n\n" +
		"Pertanyaan pengguna: "

	followupPromptFooter = "\nJawaban harus informatif, membantu, dan akurat secara medis. " +
		"Sertakan catatan bahwa informasi ini bukan pengganti nasihat medis profesional.\n"

	referenceHeader = "\nData referensi (ringkasan):\n"
)

// symptomLabelRules map intake question text to a short canonical label used
// in the compact prompt.  Ordered, first match wins.
var symptomLabelRules = []struct {
	keyword string
	label   string
}{
	{"berapa hari", "durasi demam"},
	{"demam", "demam tinggi"},
	{"belakang mata", "nyeri belakang mata"},
	{"otot atau sendi", "nyeri otot/sendi"},
	{"sakit kepala", "sakit kepala"},
	{"lelah", "kelelahan"},
	{"mual atau muntah", "mual/muntah"},
	{"ruam", "ruam kulit"},
	{"perdarahan", "perdarahan ringan"},
	{"perut", "nyeri perut"},
	{"pusing", "pusing"},
	{"makan atau minum", "kesulitan makan/minum"},
}

// Canned fallback blocks for follow-up questions, routed by keyword.
const (
	preventionAnswer = "Pencegahan demam berdarah berfokus pada pengendalian nyamuk Aedes aegypti:\n" +
		"- Lakukan 3M: Menguras tempat penampungan air, Menutup rapat wadah air, Mendaur ulang barang bekas.\n" +
		"- Gunakan kelambu, losion antinyamuk, dan pakaian lengan panjang.\n" +
		"- Pasang kasa pada ventilasi dan jendela.\n" +
		"- Lakukan fogging bila ada kasus di lingkungan Anda.\n\n" +
		"Informasi ini bukan pengganti nasihat medis profesional."

	symptomsAnswer = "Gejala umum demam berdarah meliputi:\n" +
		"- Demam tinggi mendadak (di atas 38°C)\n" +
		"- Nyeri kepala berat dan nyeri di belakang mata\n" +
		"- Nyeri otot dan sendi ('breakbone fever')\n" +
		"- Mual, muntah, dan kelelahan\n" +
		"- Ruam kulit atau bintik-bintik merah\n" +
		"- Perdarahan ringan seperti mimisan atau gusi berdarah\n\n" +
		"Informasi ini bukan pengganti nasihat medis profesional."

	treatmentAnswer = "Tidak ada obat khusus untuk demam berdarah; penanganan bersifat suportif:\n" +
		"- Istirahat total dan minum banyak cairan.\n" +
		"- Gunakan parasetamol untuk demam; hindari aspirin dan ibuprofen karena meningkatkan risiko perdarahan.\n" +
		"- Pantau tanda peringatan; segera ke rumah sakit jika muncul nyeri perut parah, muntah terus-menerus, atau perdarahan.\n\n" +
		"Informasi ini bukan pengganti nasihat medis profesional."

	genericAnswerPrefix = "Maaf, saya hanya dapat menjawab seputar demam berdarah. Mengenai pertanyaan Anda (\""

	genericAnswerSuffix = "\"), silakan konsultasikan dengan tenaga medis untuk informasi yang lebih spesifik. " +
		"Anda juga dapat bertanya tentang pencegahan, gejala, atau pengobatan demam berdarah."
)

// followupRoutes routes a fallback follow-up question to a canned block.
// Ordered, first match wins; unmatched questions get the generic block.
var followupRoutes = []struct {
	keyword string
	answer  string
}{
	{"pencegahan", preventionAnswer},
	{"cegah", preventionAnswer},
	{"gejala", symptomsAnswer},
	{"tanda", symptomsAnswer},
	{"pengobatan", treatmentAnswer},
	{"obat", treatmentAnswer},
	{"perawatan", treatmentAnswer},
}
