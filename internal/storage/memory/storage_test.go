package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/roster/internal/dependencies/mocks"
	"github.com/mcoot/roster/internal/model"
	"github.com/mcoot/roster/internal/storage"
	"github.com/mcoot/roster/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &StorageSuite{
		Suite: storagetest.Suite{
			NewStorage: func(clk *mocks.MockClock) storage.Storage {
				return New(clk)
			},
		},
	})
}

func (s *StorageSuite) TestConcurrentCreatesKeepNumbersUnique() {
	s.Require().NoError(s.Store.CreateTeam(s.Ctx, &model.Team{ID: "tigers", Name: "Tigers", Color: "#000"}))

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := model.Player{
				ID:       model.PlayerID("p" + string(rune('a'+i))),
				Name:     "Player",
				Number:   12,
				TeamID:   "tigers",
				Position: "Pitcher",
			}
			errs <- s.Store.CreatePlayer(s.Ctx, &p)
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, model.ErrDuplicateNumber)
	}
	s.Equal(1, succeeded)
}
