package trainer

// Stats is a point-in-time summary of training and evolution progress.
type Stats struct {
	TotalEpochs  uint64  `json:"total_epochs"`
	TotalSamples uint64  `json:"total_samples"`
	LearningRate float64 `json:"learning_rate"`

	LastLoss     float64 `json:"last_loss"`
	LastAccuracy float64 `json:"last_accuracy"`
	AvgLoss      float64 `json:"avg_loss"`
	RecentLoss   float64 `json:"recent_loss"`

	Nodes              int     `json:"nodes"`
	EnabledConnections int     `json:"enabled_connections"`
	AvgNodeUsage       float64 `json:"avg_node_usage"`

	EvolutionEnabled bool   `json:"evolution_enabled"`
	EvolveEvery      int    `json:"evolve_every"`
	EvolutionCount   uint64 `json:"evolution_count"`

	ExplodedDeltas uint64 `json:"exploded_deltas"`
	VanishedDeltas uint64 `json:"vanished_deltas"`
}

func (t *Trainer) Stats() Stats {
	s := Stats{
		TotalEpochs:        t.totalEpochs,
		TotalSamples:       t.totalSamples,
		LearningRate:       t.cfg.LearningRate,
		LastAccuracy:       t.lastAccuracy,
		RecentLoss:         t.recentLoss(),
		Nodes:              t.store.NodeCount(),
		EnabledConnections: t.store.EnabledConnectionCount(),
		EvolutionEnabled:   t.cfg.EnableEvolution,
		EvolveEvery:        t.cfg.EvolveEvery,
		EvolutionCount:     t.evolutionCount,
		ExplodedDeltas:     t.explodedDeltas,
		VanishedDeltas:     t.vanishedDeltas,
	}
	if n := len(t.lossHistory); n > 0 {
		s.LastLoss = t.lossHistory[n-1]
		sum := 0.0
		for _, l := range t.lossHistory {
			sum += l
		}
		s.AvgLoss = sum / float64(n)
	}
	if s.Nodes > 0 {
		s.AvgNodeUsage = t.store.TotalUsage() / float64(s.Nodes)
	}
	return s
}
