package pattern

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"
)

// Type is the kind of feature a Pattern describes.
type Type string

// Pattern types, grouped the way they are extracted.
const (
	TypeLength    Type = "length"
	TypePosition  Type = "position"
	TypeRepeat    Type = "repeat"
	TypeCharType  Type = "chartype"
	TypeCharStats Type = "charstats"

	TypeWord     Type = "word"
	TypeYear     Type = "year"
	TypeDate     Type = "date"
	TypeKeyboard Type = "keyboard"

	TypeFileName   Type = "filename"
	TypeFileNumber Type = "filenumber"
	TypeFileSize   Type = "filesize"
	TypeFileType   Type = "filetype"

	TypeBigram  Type = "bigram"
	TypeTrigram Type = "trigram"

	TypeLeet      Type = "leet"
	TypeCase      Type = "case"
	TypeNumSuffix Type = "numsuffix"
	TypeNumPrefix Type = "numprefix"
)

// baseConfidence is the confidence of a pattern on its first observation.
var baseConfidence = map[Type]float64{
	TypeLength:     0.3,
	TypePosition:   0.5,
	TypeRepeat:     0.6,
	TypeCharType:   0.7,
	TypeCharStats:  0.4,
	TypeWord:       0.8,
	TypeYear:       0.9,
	TypeDate:       0.6,
	TypeKeyboard:   0.7,
	TypeFileName:   0.9,
	TypeFileNumber: 0.8,
	TypeFileSize:   0.3,
	TypeFileType:   0.4,
	TypeBigram:     0.3,
	TypeTrigram:    0.4,
	TypeLeet:       0.8,
	TypeCase:       0.5,
	TypeNumSuffix:  0.7,
	TypeNumPrefix:  0.7,
}

// generative types can be expanded into candidates.
var generative = map[Type]bool{
	TypeWord:       true,
	TypeYear:       true,
	TypeDate:       true,
	TypeKeyboard:   true,
	TypeFileName:   true,
	TypeFileNumber: true,
	TypeNumSuffix:  true,
}

// Generative reports whether patterns of type t yield candidates.
func (t Type) Generative() bool {
	return generative[t]
}

// MaxConfidence caps confidence growth on repeated observations.
const MaxConfidence = 0.95

// maxContexts bounds the context summaries kept per pattern.
const maxContexts = 10

// ContextSummary is the part of a generation context remembered with a pattern.
type ContextSummary struct {
	FileName  string `json:"fileName,omitempty"`
	Extension string `json:"extension,omitempty"`
	SizeClass string `json:"sizeClass,omitempty"`
}

// Pattern is one learned feature.
type Pattern struct {
	// ID is the hex prefix of sha3-256("type:key").
	ID   string `json:"id"`
	Type Type   `json:"type"`

	// Key is the canonical feature key, for example "len:8" or "word:love".
	Key string `json:"key"`

	// Value is the raw feature value used for candidate expansion.
	Value string `json:"value"`

	Confidence float64          `json:"confidence"`
	Count      int              `json:"count"`
	Created    time.Time        `json:"created"`
	LastSeen   time.Time        `json:"lastSeen"`
	Contexts   []ContextSummary `json:"contexts,omitempty"`
}

// ID returns the identity of a (type, key) pair.
func ID(t Type, key string) string {
	sum := sha3.Sum256([]byte(string(t) + ":" + key))
	return hex.EncodeToString(sum[:8])
}

// observation is one feature extracted from a password, before merging.
type observation struct {
	typ   Type
	key   string
	value string
}

// SizeClass buckets a file size the way learned patterns remember it.
func SizeClass(size int64) string {
	switch {
	case size <= 0:
		return ""
	case size < 1<<20:
		return "small"
	case size < 10<<20:
		return "medium"
	case size < 100<<20:
		return "large"
	default:
		return "xlarge"
	}
}
