// Package topic holds the fixed topic catalog for the 600-question bank.
// Per-topic question counts are catalog facts, not derived from answered
// records: a topic's total is stable even when nothing in it was answered.
package topic

// TotalQuestions is the size of the full question bank.
const TotalQuestions = 600

// CriticalID is the pseudo-topic of instant-fail questions. It spans all
// real topics; questions belong to it via their critical flag.
const CriticalID = "t-diem-liet"

// counts matches the questions.json dataset.
var counts = map[string]int{
	"t-diem-liet":  60,
	"t-khai-niem":  180,
	"t-van-hoa":    25,
	"t-ky-thuat":   58,
	"t-cau-tao":    37,
	"t-bien-bao":   185,
	"t-tinh-huong": 115,
}

var names = map[string]string{
	"t-diem-liet":  "Câu hỏi điểm liệt",
	"t-khai-niem":  "Khái niệm và quy tắc",
	"t-van-hoa":    "Văn hóa giao thông",
	"t-ky-thuat":   "Kỹ thuật lái xe",
	"t-cau-tao":    "Cấu tạo sửa chữa",
	"t-bien-bao":   "Biển báo đường bộ",
	"t-tinh-huong": "Sa hình tình huống",
}

// ids in stable display order.
var ids = []string{
	"t-diem-liet",
	"t-khai-niem",
	"t-van-hoa",
	"t-ky-thuat",
	"t-cau-tao",
	"t-bien-bao",
	"t-tinh-huong",
}

// IDs returns all topic IDs in stable order.
func IDs() []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Count returns the number of questions in a topic, 0 for unknown topics.
func Count(id string) int {
	return counts[id]
}

// Name returns the display name of a topic, falling back to the ID.
func Name(id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id
}
