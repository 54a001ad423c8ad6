package mocks

//go:generate mockgen -destination=./mock_store.go -package=mocks github.com/rxtech-lab/argo-pnl/internal/store FillStore
//go:generate mockgen -destination=./mock_feed.go -package=mocks github.com/rxtech-lab/argo-pnl/internal/feed Source,Reporter
