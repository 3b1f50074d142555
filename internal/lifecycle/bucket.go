package lifecycle

import "github.com/Project-FinanceHUB/financehub/internal/models"

// Bucket agrupa status para filtros. É só conveniência de tela, não substitui o status.
type Bucket string

const (
	BucketAll       Bucket = "all"
	BucketPendente  Bucket = "pendente"
	BucketEmRevisao Bucket = "em_revisao"
	BucketFechado   Bucket = "fechado"
)

// EstagioEmRevisao coloca a solicitação no bucket em_revisao independente do status.
const EstagioEmRevisao = "Em revisão"

var bucketMembers = map[Bucket][]models.Status{
	BucketPendente:  {models.StatusPendente, models.StatusAguardandoValidacao},
	BucketEmRevisao: {models.StatusEmAndamento},
	BucketFechado:   {models.StatusFechado, models.StatusConcluido, models.StatusCancelado},
}

func ParseBucket(raw string) Bucket {
	if raw == "" {
		return BucketAll
	}
	return Bucket(raw)
}

func (b Bucket) Known() bool {
	if b == BucketAll {
		return true
	}
	_, ok := bucketMembers[b]
	return ok
}

// MatchStatus: bucket desconhecido não casa com nada.
func (b Bucket) MatchStatus(s models.Status) bool {
	if b == BucketAll || b == "" {
		return true
	}
	for _, m := range bucketMembers[b] {
		if m == s {
			return true
		}
	}
	return false
}

func (b Bucket) Match(s models.Solicitacao) bool {
	if b == BucketEmRevisao && s.Estagio == EstagioEmRevisao {
		return true
	}
	return b.MatchStatus(s.Status)
}
