package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SubsetSumHash вычисляет хеш экземпляра subset-sum для использования как ключ кэша.
// Порядок весов значим: экземпляры с переставленными весами считаются разными.
func SubsetSumHash(weights []int64, target int64) string {
	data := subsetSumToCanonical(weights, target)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// subsetSumToCanonical создаёт детерминированное представление экземпляра
func subsetSumToCanonical(weights []int64, target int64) []byte {
	var result []byte

	result = append(result, []byte(fmt.Sprintf("t:%d;", target))...)
	for _, w := range weights {
		result = append(result, []byte(fmt.Sprintf("w:%d;", w))...)
	}

	return result
}

// MatrixHash вычисляет хеш матрицы расстояний
func MatrixHash(matrix [][]float64) string {
	var result []byte

	result = append(result, []byte(fmt.Sprintf("n:%d;", len(matrix)))...)
	for i, row := range matrix {
		for j, d := range row {
			result = append(result, []byte(fmt.Sprintf("d:%d:%d:%.6f;", i, j, d))...)
		}
	}

	hash := sha256.Sum256(result)
	return hex.EncodeToString(hash[:16])
}

// BuildSolveKey строит ключ кэша для результата решения
func BuildSolveKey(problemType, instanceHash string) string {
	return fmt.Sprintf("solve:%s:%s", problemType, instanceHash)
}

// QuickHash быстрый хеш для произвольных данных
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash короткий хеш (16 символов)
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
