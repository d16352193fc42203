// Package model はドメインモデルを定義する。
package model

// Level はCEFR準拠の習熟度レベルを表す。
// 閉じた集合 {A1, A2, B1, B2, C1} 上の全順序を持ち、
// 「隣接」はインデックス差がちょうど1であることを意味する。
type Level string

// 習熟度レベルの定義（昇順）。
const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
)

// levelOrder は全レベルの昇順の並び。序数の唯一の情報源。
var levelOrder = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1}

// LevelMetadata はレベルの表示用メタデータ。
type LevelMetadata struct {
	Code        Level  `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

// levelMetadata はレベルごとの表示用メタデータの定義。
var levelMetadata = map[Level]LevelMetadata{
	LevelA1: {
		Code:        LevelA1,
		Name:        "入門",
		Description: "基本的な語句を理解し、ごく簡単なやり取りができる。",
		Color:       "#8bc34a",
		Icon:        "seedling",
	},
	LevelA2: {
		Code:        LevelA2,
		Name:        "初級",
		Description: "身近な話題について簡単な文で情報交換ができる。",
		Color:       "#4caf50",
		Icon:        "sprout",
	},
	LevelB1: {
		Code:        LevelB1,
		Name:        "中級",
		Description: "日常の大半の場面に対応し、経験や意見を説明できる。",
		Color:       "#2196f3",
		Icon:        "tree",
	},
	LevelB2: {
		Code:        LevelB2,
		Name:        "中上級",
		Description: "抽象的な話題を理解し、流暢かつ自然にやり取りができる。",
		Color:       "#3f51b5",
		Icon:        "mountain",
	},
	LevelC1: {
		Code:        LevelC1,
		Name:        "上級",
		Description: "高度な内容を理解し、目的に応じて柔軟に言語を使いこなせる。",
		Color:       "#9c27b0",
		Icon:        "summit",
	},
}

// ParseLevel はレベルコード文字列を検証してLevelに変換する。
// 閉じた集合に含まれないコードの場合はfalseを返す。
func ParseLevel(code string) (Level, bool) {
	l := Level(code)
	if !l.IsValid() {
		return "", false
	}
	return l, true
}

// IsValid はレベルが閉じた集合に含まれるかを返す。
func (l Level) IsValid() bool {
	_, ok := levelMetadata[l]
	return ok
}

// Index はレベルの序数を返す（A1=0）。
// 未知のレベルには-1を返すが、呼び出し側はParseLevelで事前に検証すること。
func (l Level) Index() int {
	for i, v := range levelOrder {
		if v == l {
			return i
		}
	}
	return -1
}

// Next は1段階上のレベルを返す。最上位レベルの場合はfalseを返す。
func (l Level) Next() (Level, bool) {
	i := l.Index()
	if i < 0 || i >= len(levelOrder)-1 {
		return "", false
	}
	return levelOrder[i+1], true
}

// Previous は1段階下のレベルを返す。最下位レベルの場合はfalseを返す。
func (l Level) Previous() (Level, bool) {
	i := l.Index()
	if i <= 0 {
		return "", false
	}
	return levelOrder[i-1], true
}

// Metadata はレベルの表示用メタデータを返す。
func (l Level) Metadata() LevelMetadata {
	return levelMetadata[l]
}

// MinLevel は最下位レベル（新規ユーザーの初期レベル）を返す。
func MinLevel() Level {
	return levelOrder[0]
}

// Levels は全レベルを昇順で返す。返り値はコピーであり変更しても安全。
func Levels() []Level {
	out := make([]Level, len(levelOrder))
	copy(out, levelOrder)
	return out
}
