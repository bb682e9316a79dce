package reservation

import (
	"strings"

	"github.com/google/uuid"
)

// CodePrefix は予約コードの接頭辞
const CodePrefix = "RES-"

// CodeGenerator は予約コードを生成する。一意性はストアの一意制約で保証する
type CodeGenerator func() string

// NewCode は RES-XXXXXXXX 形式の予約コードを生成する
func NewCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return CodePrefix + strings.ToUpper(id[:8])
}
