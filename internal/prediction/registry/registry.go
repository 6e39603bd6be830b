package registry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownModel indica alias ausente do registro de modelos
var ErrUnknownModel = errors.New("unknown model")

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Descriptor descreve um modelo de predição disponível na plataforma.
// O alias é a chave de seleção externa (e nome de exibição).
type Descriptor struct {
	ID          string `json:"id"`
	Alias       string `json:"alias"`
	Endpoint    string `json:"-"`
	Tier        Tier   `json:"tier"`
	Description string `json:"description"`
}

// Registry é a tabela estática de modelos, indexada por alias.
// Montada uma vez no startup; imutável depois disso.
type Registry struct {
	byAlias map[string]Descriptor
	ordered []Descriptor
}

// New monta o registro a partir da URL base do serviço de modelos.
// Todos os modelos são servidos pelo mesmo endpoint /predict.
func New(modelAPIBase string) *Registry {
	base := strings.TrimSuffix(modelAPIBase, "/")
	defs := []Descriptor{
		{ID: "lr", Alias: "Quick Pick", Tier: TierFree, Description: "Logistic regression baseline"},
		{ID: "lgbm", Alias: "Form Cruncher", Tier: TierFree, Description: "LightGBM gradient boosting"},
		{ID: "transformer", Alias: "Deep Dive", Tier: TierPremium, Description: "Transformer neural network"},
		{ID: "stacker", Alias: "Stacked", Tier: TierPremium, Description: "Ensemble stacker model"},
		{ID: "rl", Alias: "Edge Finder", Tier: TierPremium, Description: "Reinforcement learning agent"},
	}

	r := &Registry{byAlias: make(map[string]Descriptor, len(defs))}
	for i := range defs {
		defs[i].Endpoint = base + "/predict"
		r.byAlias[defs[i].Alias] = defs[i]
	}
	r.ordered = defs
	return r
}

// Lookup resolve um alias para seu descriptor
func (r *Registry) Lookup(alias string) (Descriptor, error) {
	d, ok := r.byAlias[alias]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownModel, alias)
	}
	return d, nil
}

// All retorna os modelos na ordem de declaração (cópia; o registro não muda)
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}
