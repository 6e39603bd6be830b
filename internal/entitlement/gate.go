package entitlement

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultAlias é o modo baseline do tier gratuito; único alias liberado
// quando não há entitlements confirmados (fail closed)
const DefaultAlias = "Quick Pick"

// DefaultInterval entre refreshes periódicos
const DefaultInterval = 30 * time.Second

// identidades sem leitura há este múltiplo do intervalo saem do cache
const idleFactor = 10

// Fetcher abstrai a consulta de entitlements (implementada por BillingClient)
type Fetcher interface {
	Fetch(ctx context.Context, identity string) ([]string, error)
}

// entry guarda o conjunto liberado de uma identidade.
// allowed é imutável após publicado: refreshes trocam o mapa inteiro.
type entry struct {
	allowed   map[string]struct{}
	fetchedAt time.Time
	lastSeen  time.Time
}

// Gate mantém, por identidade, o conjunto de aliases de modelo liberados.
//
// Cada credencial tem sua própria entrada: a checagem de uma requisição
// nunca enxerga o conjunto de outra identidade. O conjunto é substituído
// por inteiro a cada refresh (swap atômico, nunca merge) e falha de
// transporte ou 403 derruba para o conjunto default em vez de preservar
// entitlements elevados obsoletos.
//
// Leituras de entradas dentro da validade não bloqueiam em refresh em
// andamento; entrada ausente ou expirada espera um fetch síncrono.
type Gate struct {
	log      *zap.Logger
	fetcher  Fetcher
	interval time.Duration

	// OnRefresh recebe o resultado de cada refresh (métricas); opcional
	OnRefresh func(ok bool)

	fetchMu sync.Mutex // serializa fetches: um por vez

	mu      sync.RWMutex
	byIdent map[string]*entry
}

func NewGate(log *zap.Logger, f Fetcher, interval time.Duration) *Gate {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Gate{
		log:      log,
		fetcher:  f,
		interval: interval,
		byIdent:  make(map[string]*entry),
	}
}

func defaultSet() map[string]struct{} {
	return map[string]struct{}{DefaultAlias: {}}
}

// Allowed informa se o alias está liberado para a identidade
func (g *Gate) Allowed(ctx context.Context, identity, alias string) bool {
	_, ok := g.resolve(ctx, identity)[alias]
	return ok
}

// Current retorna o conjunto de aliases liberados da identidade (cópia ordenada)
func (g *Gate) Current(ctx context.Context, identity string) []string {
	set := g.resolve(ctx, identity)
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// resolve devolve o conjunto corrente da identidade. Entrada fresca sai
// direto do cache; ausente ou expirada espera um fetch síncrono.
func (g *Gate) resolve(ctx context.Context, identity string) map[string]struct{} {
	g.mu.Lock()
	if e, ok := g.byIdent[identity]; ok {
		e.lastSeen = time.Now()
		if time.Since(e.fetchedAt) < g.interval {
			set := e.allowed
			g.mu.Unlock()
			return set
		}
	}
	g.mu.Unlock()
	return g.refresh(ctx, identity, false)
}

// Refresh força a consulta ao billing e troca o conjunto da identidade
func (g *Gate) Refresh(ctx context.Context, identity string) {
	g.refresh(ctx, identity, true)
}

// refresh consulta o billing e troca o conjunto da identidade por inteiro.
// Em erro (transporte ou forbidden) o conjunto vira o default: fail closed.
func (g *Gate) refresh(ctx context.Context, identity string, force bool) map[string]struct{} {
	g.fetchMu.Lock()
	defer g.fetchMu.Unlock()

	if !force {
		// outra requisição pode ter completado o fetch enquanto esperávamos
		g.mu.RLock()
		if e, ok := g.byIdent[identity]; ok && time.Since(e.fetchedAt) < g.interval {
			set := e.allowed
			g.mu.RUnlock()
			return set
		}
		g.mu.RUnlock()
	}

	aliases, err := g.fetcher.Fetch(ctx, identity)

	var next map[string]struct{}
	if err != nil {
		g.log.Warn("entitlement refresh failed, falling back to default set", zap.Error(err))
		next = defaultSet()
	} else {
		next = make(map[string]struct{}, len(aliases))
		for _, a := range aliases {
			next[a] = struct{}{}
		}
	}

	now := time.Now()
	g.mu.Lock()
	e, ok := g.byIdent[identity]
	if !ok {
		e = &entry{lastSeen: now}
		g.byIdent[identity] = e
	}
	e.allowed = next
	e.fetchedAt = now
	g.mu.Unlock()

	if g.OnRefresh != nil {
		g.OnRefresh(err == nil)
	}
	return next
}

// Run refaz periodicamente os conjuntos em uso e descarta identidades
// ociosas, até o contexto ser cancelado
func (g *Gate) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep(ctx)
		}
	}
}

func (g *Gate) sweep(ctx context.Context) {
	idle := time.Duration(idleFactor) * g.interval
	now := time.Now()

	g.mu.Lock()
	live := make([]string, 0, len(g.byIdent))
	for id, e := range g.byIdent {
		if now.Sub(e.lastSeen) > idle {
			delete(g.byIdent, id)
			continue
		}
		live = append(live, id)
	}
	g.mu.Unlock()

	for _, id := range live {
		g.Refresh(ctx, id)
	}
}
