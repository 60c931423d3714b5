package epidemic_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/episim/internal/epidemic"
)

const frame = 1.0 / 60

func runFor(s *epidemic.Simulation, seconds float64) {
	steps := int(seconds / frame)
	for i := 0; i < steps; i++ {
		Expect(s.Tick(frame)).To(Succeed())
	}
}

var _ = Describe("Simulation", func() {
	var params epidemic.Parameters

	BeforeEach(func() {
		params = epidemic.DefaultParameters()
		params.Seed = 2024
	})

	Context("with the default community", func() {
		It("starts with the configured number of infected agents", func() {
			s, err := epidemic.New(params)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Population()).To(Equal(80))
			Expect(s.Counts()).To(Equal(epidemic.Counts{Susceptible: 77, Infected: 3}))
			Expect(s.History().Len()).To(Equal(1))
		})

		It("conserves the population while the outbreak runs", func() {
			params.InfectionRadius = 6
			s, err := epidemic.New(params)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 1200; i++ {
				Expect(s.Tick(frame)).To(Succeed())
				Expect(s.Counts().Total()).To(Equal(80))
			}
			Expect(s.History().Len()).To(Equal(1201))
		})

		It("recovers the initial cases after the recovery duration", func() {
			params.RecoveryDuration = 2
			params.InfectionProbability = 0
			s, err := epidemic.New(params)
			Expect(err).NotTo(HaveOccurred())

			runFor(s, 2.1)
			Expect(s.Counts()).To(Equal(epidemic.Counts{Susceptible: 77, Recovered: 3}))
		})
	})

	Context("when infection probability is zero", func() {
		BeforeEach(func() {
			params.InfectionProbability = 0
			params.InfectionRadius = 50
		})

		It("never infects anyone new", func() {
			s, err := epidemic.New(params)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 600; i++ {
				Expect(s.Tick(frame)).To(Succeed())
				c := s.Counts()
				Expect(c.Infected + c.Recovered).To(Equal(3))
			}
		})
	})

	Context("with quarantine enabled", func() {
		BeforeEach(func() {
			params.Quarantine = true
		})

		It("keeps infected agents out of the community", func() {
			s, err := epidemic.New(params)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 300; i++ {
				Expect(s.Tick(frame)).To(Succeed())
				for j := 0; j < s.Population(); j++ {
					a := s.Agent(j)
					// agents infected during this tick move on the next one
					if a.State == epidemic.Infected && a.InfectionDuration > 0 {
						Expect(a.Quarantined).To(BeTrue())
					}
				}
			}
		})

		It("never lets the outbreak grow past the initial cases", func() {
			params.InfectionRadius = 40
			params.InfectionProbability = 1
			s, err := epidemic.New(params)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 300; i++ {
				Expect(s.Tick(frame)).To(Succeed())
				Expect(s.Latest().Quarantined).To(Equal(3))
				c := s.Counts()
				Expect(c.Infected + c.Recovered).To(Equal(3))
			}
		})
	})

	Context("on restart", func() {
		It("rebuilds the population from pending settings", func() {
			s, err := epidemic.New(params)
			Expect(err).NotTo(HaveOccurred())
			runFor(s, 1)

			Expect(s.SetCommunitySize(150)).To(Succeed())
			Expect(s.SetInitialInfected(30)).To(Succeed())
			Expect(s.Restart()).To(Succeed())

			Expect(s.Population()).To(Equal(150))
			Expect(s.Counts().Infected).To(Equal(30))
			Expect(s.Elapsed()).To(BeZero())

			h := s.History()
			Expect(h.Len()).To(Equal(1))
			Expect(h.Infected[0]).To(BeNumerically("~", 20, 1e-9))
		})

		It("clamps the infected count and reports the adjustment", func() {
			s, err := epidemic.New(params)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.SetCommunitySize(20)).To(Succeed())
			Expect(s.SetInitialInfected(30)).To(Succeed())

			err = s.Restart()
			Expect(err).To(MatchError(epidemic.ErrInvalidConfiguration))
			Expect(epidemic.IsAdjustment(err)).To(BeTrue())
			Expect(s.Counts()).To(Equal(epidemic.Counts{Infected: 20}))
		})
	})

	Context("with the same seed", func() {
		It("reproduces the run exactly", func() {
			params.SocialDistancing = true
			a, err := epidemic.New(params)
			Expect(err).NotTo(HaveOccurred())
			b, err := epidemic.New(params)
			Expect(err).NotTo(HaveOccurred())

			runFor(a, 5)
			runFor(b, 5)
			Expect(a.History()).To(Equal(b.History()))
			Expect(a.Agents(nil)).To(Equal(b.Agents(nil)))
		})
	})
})
