package remote

import (
	"fmt"

	"resonance/pkg/apperror"
)

// EncodingKind тег варианта кодировки сертификата
type EncodingKind int

const (
	// EncodingIndices сертификат как список выбранных индексов
	EncodingIndices EncodingKind = iota
	// EncodingAssignment сертификат как булев вектор назначения
	EncodingAssignment
)

// SolutionEncoding размеченное объединение двух кодировок сертификата.
// Решатель отвечает либо списком индексов, либо булевым вектором; обе
// формы равноправны и нормализуются в массив индексов.
type SolutionEncoding struct {
	Kind       EncodingKind
	Indices    []int
	Assignment []bool
}

// DecodeCertificate выбирает кодировку по заполненному полю сертификата.
// Отсутствующий или пустой сертификат - это некорректный ответ решателя.
func DecodeCertificate(cert *Certificate, problemSize int) (*SolutionEncoding, error) {
	if cert == nil {
		return nil, apperror.New(apperror.CodeSolverBadReply, "response has no certificate")
	}

	switch {
	case cert.Indices != nil:
		for _, idx := range cert.Indices {
			if idx < 0 || idx >= problemSize {
				return nil, apperror.New(apperror.CodeSolverBadReply,
					fmt.Sprintf("certificate index %d out of range [0,%d)", idx, problemSize))
			}
		}
		return &SolutionEncoding{Kind: EncodingIndices, Indices: cert.Indices}, nil

	case cert.Assignment != nil:
		if len(cert.Assignment) != problemSize {
			return nil, apperror.New(apperror.CodeSolverBadReply,
				fmt.Sprintf("assignment length %d, expected %d", len(cert.Assignment), problemSize))
		}
		return &SolutionEncoding{Kind: EncodingAssignment, Assignment: cert.Assignment}, nil

	default:
		return nil, apperror.New(apperror.CodeSolverBadReply,
			"certificate carries neither indices nor assignment")
	}
}

// ToIndices нормализует любую кодировку в массив индексов
func (e *SolutionEncoding) ToIndices() ([]int, error) {
	switch e.Kind {
	case EncodingIndices:
		return indicesFromList(e.Indices), nil
	case EncodingAssignment:
		return indicesFromAssignment(e.Assignment), nil
	}
	return nil, apperror.New(apperror.CodeInvalidAssignment,
		fmt.Sprintf("unknown encoding kind %d", e.Kind))
}

// indicesFromList конверсия для варианта Indices
func indicesFromList(indices []int) []int {
	out := make([]int, len(indices))
	copy(out, indices)
	return out
}

// indicesFromAssignment конверсия для варианта Assignment
func indicesFromAssignment(assignment []bool) []int {
	out := make([]int, 0, len(assignment))
	for i, chosen := range assignment {
		if chosen {
			out = append(out, i)
		}
	}
	return out
}
