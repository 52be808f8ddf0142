package cloudsync_test

import (
	"context"
	"time"

	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/atomic"
)

type countingPuller struct {
	runs *atomic.Int64
}

func (p countingPuller) Pull(ctx context.Context) (*cloudsync.Report, error) {
	p.runs.Inc()
	return &cloudsync.Report{Direction: cloudsync.DirectionPull}, nil
}

// blockingPuller holds every pull until release is closed.
type blockingPuller struct {
	release  chan struct{}
	runs     *atomic.Int64
	inflight *atomic.Int64
	peak     *atomic.Int64
}

func newBlockingPuller() *blockingPuller {
	return &blockingPuller{
		release:  make(chan struct{}),
		runs:     atomic.NewInt64(0),
		inflight: atomic.NewInt64(0),
		peak:     atomic.NewInt64(0),
	}
}

func (p *blockingPuller) Pull(ctx context.Context) (*cloudsync.Report, error) {
	p.runs.Inc()
	n := p.inflight.Inc()
	defer p.inflight.Dec()
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	select {
	case <-p.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &cloudsync.Report{Direction: cloudsync.DirectionPull}, nil
}

var _ = Describe("Scheduler", func() {
	It("rejects an invalid schedule", func() {
		_, err := cloudsync.NewScheduler("every now and then", countingPuller{runs: atomic.NewInt64(0)}, quietLogger)
		Expect(err).To(HaveOccurred())
	})

	It("pulls on every tick until stopped", func() {
		puller := countingPuller{runs: atomic.NewInt64(0)}
		scheduler, err := cloudsync.NewScheduler("@every 1s", puller, quietLogger)
		Expect(err).NotTo(HaveOccurred())

		scheduler.Start(context.Background())
		Eventually(puller.runs.Load, 3*time.Second, 50*time.Millisecond).Should(BeNumerically(">=", 1))
		scheduler.Stop()

		runs := puller.runs.Load()
		Consistently(puller.runs.Load, 1500*time.Millisecond).Should(Equal(runs))
	})

	It("skips ticks while a pull is still running", func() {
		puller := newBlockingPuller()
		scheduler, err := cloudsync.NewScheduler("@every 1s", puller, quietLogger)
		Expect(err).NotTo(HaveOccurred())

		scheduler.Start(context.Background())
		defer scheduler.Stop()

		Eventually(puller.runs.Load, 3*time.Second, 50*time.Millisecond).Should(Equal(int64(1)))
		Consistently(puller.runs.Load, 2500*time.Millisecond, 50*time.Millisecond).Should(Equal(int64(1)))
		Expect(puller.inflight.Load()).To(Equal(int64(1)))

		close(puller.release)
		Eventually(puller.runs.Load, 3*time.Second, 50*time.Millisecond).Should(BeNumerically(">=", 2))
		Expect(puller.peak.Load()).To(Equal(int64(1)))
	})
})

var _ = Describe("Diff", func() {
	It("reports keys present on one side only", func() {
		localDB := openLocalDB()
		cloudDB := openCloudDB()

		Expect(localDB.Exec(`INSERT INTO usuarios (username, password, role) VALUES ('ana', 'x', 'sdr'), ('bia', 'x', 'sdr')`).Error).To(Succeed())
		Expect(cloudDB.Exec(`INSERT INTO usuarios (username, password_hash, role) VALUES ('ANA', 'x', 'sdr'), ('caio', 'x', 'sdr')`).Error).To(Succeed())

		localSQL, err := localDB.DB()
		Expect(err).NotTo(HaveOccurred())
		cloudSQL, err := cloudDB.DB()
		Expect(err).NotTo(HaveOccurred())

		diffs := cloudsync.Diff(context.Background(),
			sqlx.NewDb(localSQL, "sqlite3"),
			sqlx.NewDb(cloudSQL, "sqlite3"),
			cloudsync.DefaultRegistry(), "")
		Expect(diffs).To(HaveLen(8))

		var users cloudsync.TableDiff
		for _, d := range diffs {
			if d.Table == "usuarios" {
				users = d
			} else {
				Expect(d.InSync()).To(BeTrue(), d.Table)
			}
		}
		Expect(users.LocalRows).To(Equal(2))
		Expect(users.CloudRows).To(Equal(2))
		Expect(users.OnlyLocal).To(Equal([]string{"bia"}))
		Expect(users.OnlyCloud).To(Equal([]string{"caio"}))
		Expect(users.InSync()).To(BeFalse())
	})

	It("records a missing cloud table", func() {
		localDB := openLocalDB()
		cloudDB := openCloudDB()
		Expect(cloudDB.Exec("DROP TABLE portais").Error).To(Succeed())

		localSQL, _ := localDB.DB()
		cloudSQL, _ := cloudDB.DB()
		diffs := cloudsync.Diff(context.Background(), sqlx.NewDb(localSQL, "sqlite3"), sqlx.NewDb(cloudSQL, "sqlite3"), cloudsync.DefaultRegistry(), "loja-a")

		for _, d := range diffs {
			if d.Table == "portais" {
				Expect(d.CloudError).To(ContainSubstring("portais"))
			}
		}
	})
})
