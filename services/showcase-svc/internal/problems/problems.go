// Package problems содержит неизменяемый каталог демонстрационных NP-трудных
// задач и таблицу конфигурации сложности. Каталог определяется при старте
// процесса и никогда не мутируется.
package problems

import (
	"fmt"

	"resonance/pkg/apperror"
)

// Type тип задачи
type Type string

const (
	TypeTSP       Type = "tsp"
	TypeSubsetSum Type = "subset_sum"
	TypeClique    Type = "clique"
	Type3SAT      Type = "3sat"
)

// Level уровень сложности
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelExpert       Level = "expert"
)

// AllTypes возвращает закрытое множество типов задач в стабильном порядке
func AllTypes() []Type {
	return []Type{TypeTSP, TypeSubsetSum, TypeClique, Type3SAT}
}

// AllLevels возвращает закрытое множество уровней сложности в стабильном порядке
func AllLevels() []Level {
	return []Level{LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert}
}

// ParseType валидирует строковое представление типа задачи
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeTSP, TypeSubsetSum, TypeClique, Type3SAT:
		return Type(s), nil
	}
	return "", apperror.New(apperror.CodeUnknownProblemType,
		fmt.Sprintf("unknown problem type: %q", s))
}

// ParseLevel валидирует строковое представление уровня сложности
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert:
		return Level(s), nil
	}
	return "", apperror.New(apperror.CodeUnknownDifficulty,
		fmt.Sprintf("unknown difficulty level: %q", s))
}

// Params параметры генерации для пары (тип задачи, уровень сложности).
// Заполнены только поля, относящиеся к соответствующему типу.
type Params struct {
	// TSP
	CityCount    int  `json:"cityCount,omitempty"`
	Clustered    bool `json:"clustered,omitempty"`
	ClusterCount int  `json:"clusterCount,omitempty"`

	// Subset-Sum
	ProblemSize int      `json:"problemSize,omitempty"`
	MaxWeight   int64    `json:"maxWeight,omitempty"`
	TargetRange [2]int64 `json:"targetRange,omitempty"`

	// Clique
	VertexCount int     `json:"vertexCount,omitempty"`
	EdgeDensity float64 `json:"edgeDensity,omitempty"`

	// 3-SAT
	VariableCount int `json:"variableCount,omitempty"`
	ClauseCount   int `json:"clauseCount,omitempty"`
}

// Definition статический дескриптор задачи из каталога
type Definition struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Type            Type             `json:"type"`
	ComplexityClass string           `json:"complexityClass"`
	DefaultLevel    Level            `json:"defaultLevel"`
	Difficulty      map[Level]Params `json:"difficulty"`
}

// DifficultyConfig активная пара (уровень, параметры) выбранной задачи.
// Заменяется целиком при каждой смене уровня или задачи.
type DifficultyConfig struct {
	Level  Level  `json:"level"`
	Params Params `json:"params"`
}

// catalog определяется один раз при инициализации пакета
var catalog = []Definition{
	{
		ID:              "tsp",
		Name:            "Traveling Salesman",
		Description:     "Find the shortest tour visiting %d cities exactly once",
		Type:            TypeTSP,
		ComplexityClass: "NP-hard",
		DefaultLevel:    LevelBeginner,
		Difficulty: map[Level]Params{
			LevelBeginner:     {CityCount: 8, Clustered: true, ClusterCount: 2},
			LevelIntermediate: {CityCount: 15, Clustered: true, ClusterCount: 3},
			LevelAdvanced:     {CityCount: 25, Clustered: true, ClusterCount: 4},
			LevelExpert:       {CityCount: 40, Clustered: false},
		},
	},
	{
		ID:              "subset_sum",
		Name:            "Subset Sum",
		Description:     "Choose a subset of %d weights summing exactly to the target",
		Type:            TypeSubsetSum,
		ComplexityClass: "NP-complete",
		DefaultLevel:    LevelBeginner,
		Difficulty: map[Level]Params{
			LevelBeginner:     {ProblemSize: 10, MaxWeight: 50, TargetRange: [2]int64{10, 30}},
			LevelIntermediate: {ProblemSize: 20, MaxWeight: 100, TargetRange: [2]int64{100, 300}},
			LevelAdvanced:     {ProblemSize: 35, MaxWeight: 500, TargetRange: [2]int64{1000, 3000}},
			LevelExpert:       {ProblemSize: 50, MaxWeight: 1000, TargetRange: [2]int64{5000, 15000}},
		},
	},
	{
		ID:              "clique",
		Name:            "Maximum Clique",
		Description:     "Find the largest fully connected group among %d vertices",
		Type:            TypeClique,
		ComplexityClass: "NP-complete",
		DefaultLevel:    LevelBeginner,
		Difficulty: map[Level]Params{
			LevelBeginner:     {VertexCount: 10, EdgeDensity: 0.5},
			LevelIntermediate: {VertexCount: 20, EdgeDensity: 0.5},
			LevelAdvanced:     {VertexCount: 35, EdgeDensity: 0.6},
			LevelExpert:       {VertexCount: 50, EdgeDensity: 0.7},
		},
	},
	{
		ID:              "3sat",
		Name:            "3-Satisfiability",
		Description:     "Satisfy %d clauses over %d boolean variables",
		Type:            Type3SAT,
		ComplexityClass: "NP-complete",
		DefaultLevel:    LevelBeginner,
		Difficulty: map[Level]Params{
			LevelBeginner:     {VariableCount: 10, ClauseCount: 42},
			LevelIntermediate: {VariableCount: 20, ClauseCount: 85},
			LevelAdvanced:     {VariableCount: 35, ClauseCount: 149},
			LevelExpert:       {VariableCount: 50, ClauseCount: 213},
		},
	},
}

// Catalog возвращает копию каталога в стабильном порядке
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup ищет задачу по идентификатору
func Lookup(id string) (*Definition, error) {
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i], nil
		}
	}
	return nil, apperror.New(apperror.CodeUnknownProblemType,
		fmt.Sprintf("problem not found: %q", id))
}

// Resolve возвращает параметры генерации для пары (тип, уровень).
// Неизвестная комбинация - это ошибка программирования, возвращается
// сразу, без молчаливого дефолта.
func Resolve(problemType Type, level Level) (Params, error) {
	for i := range catalog {
		if catalog[i].Type != problemType {
			continue
		}
		params, ok := catalog[i].Difficulty[level]
		if !ok {
			return Params{}, apperror.New(apperror.CodeUnknownDifficulty,
				fmt.Sprintf("no difficulty params for %s/%s", problemType, level))
		}
		return params, nil
	}
	return Params{}, apperror.New(apperror.CodeUnknownProblemType,
		fmt.Sprintf("unknown problem type: %q", problemType))
}

// DisplayCopy интерполирует описание задачи значениями параметров,
// чтобы текст и генерация менялись согласованно
func DisplayCopy(def *Definition, params Params) string {
	switch def.Type {
	case TypeTSP:
		return fmt.Sprintf(def.Description, params.CityCount)
	case TypeSubsetSum:
		return fmt.Sprintf(def.Description, params.ProblemSize)
	case TypeClique:
		return fmt.Sprintf(def.Description, params.VertexCount)
	case Type3SAT:
		return fmt.Sprintf(def.Description, params.ClauseCount, params.VariableCount)
	}
	return def.Description
}
