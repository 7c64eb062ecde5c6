package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hamed0406/sitechecker/internal/config"
)

const validConfig = `
sites:
  - name: classic_catalog
    url: https://classic.example.org/
  - name: encore
    url: https://catalog.example.org/iii/encore/

email:
  smtp_host: smtp.example.org
  smtp_username: checker
  smtp_password: secret
  from: checker@example.org
  to: ops@example.org

probe:
  timeout: 10s
`

var _ = Describe("Config", func() {
	var tempDir string

	writeConfig := func(content string) string {
		path := filepath.Join(tempDir, "config.yaml")
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
	})

	Describe("Load", func() {
		Context("with a valid config file", func() {
			It("keeps the site order", func() {
				cfg, err := config.Load(writeConfig(validConfig))
				Expect(err).NotTo(HaveOccurred())

				sites := cfg.SiteList()
				Expect(sites).To(HaveLen(2))
				Expect(sites[0].Name).To(Equal("classic_catalog"))
				Expect(sites[1].URL).To(Equal("https://catalog.example.org/iii/encore/"))
			})

			It("applies defaults", func() {
				cfg, err := config.Load(writeConfig(validConfig))
				Expect(err).NotTo(HaveOccurred())

				Expect(cfg.Email.SMTPPort).To(Equal(587))
				Expect(cfg.Email.TLSPolicy).To(Equal(config.TLSMandatory))
				Expect(cfg.Email.SMTPAuth).To(Equal(config.SMTPAuthAuto))
				Expect(cfg.Database.Driver).To(Equal(config.DriverSQLite))
				Expect(cfg.Database.Path).To(Equal("site-checker.db"))
				Expect(cfg.Log.Level).To(Equal("info"))
			})

			It("parses the probe timeout", func() {
				cfg, err := config.Load(writeConfig(validConfig))
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Probe.Timeout).To(Equal(10 * time.Second))
			})
		})

		Context("with environment overrides", func() {
			It("takes the SMTP password from the environment", func() {
				GinkgoT().Setenv("SITECHECK_EMAIL_SMTP_PASSWORD", "from-env")
				cfg, err := config.Load(writeConfig(validConfig))
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Email.SMTPPassword).To(Equal("from-env"))
			})

			It("selects postgres with a DSN", func() {
				GinkgoT().Setenv("SITECHECK_DATABASE_DRIVER", "postgres")
				GinkgoT().Setenv("SITECHECK_DATABASE_URL", "postgres://u:p@localhost:5432/db")
				cfg, err := config.Load(writeConfig(validConfig))
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Database.Driver).To(Equal(config.DriverPostgres))
				Expect(cfg.Database.URL).To(HavePrefix("postgres://"))
			})
		})

		Context("with invalid input", func() {
			It("fails when the file is missing", func() {
				_, err := config.Load(filepath.Join(tempDir, "nope.yaml"))
				Expect(err).To(HaveOccurred())
			})

			It("rejects an empty site list", func() {
				_, err := config.Load(writeConfig(`
email:
  smtp_host: smtp.example.org
  from: checker@example.org
  to: ops@example.org
`))
				Expect(err).To(MatchError(ContainSubstring("Sites")))
			})

			It("rejects duplicate site names", func() {
				_, err := config.Load(writeConfig(`
sites:
  - name: a
    url: https://a.example.org
  - name: a
    url: https://b.example.org
email:
  smtp_host: smtp.example.org
  from: checker@example.org
  to: ops@example.org
`))
				Expect(err).To(MatchError(ContainSubstring("duplicate site name")))
			})

			It("rejects non-http schemes", func() {
				_, err := config.Load(writeConfig(`
sites:
  - name: a
    url: ftp://a.example.org
email:
  smtp_host: smtp.example.org
  from: checker@example.org
  to: ops@example.org
`))
				Expect(err).To(MatchError(ContainSubstring("http or https")))
			})

			It("requires a password when a username is set", func() {
				_, err := config.Load(writeConfig(`
sites:
  - name: a
    url: https://a.example.org
email:
  smtp_host: smtp.example.org
  smtp_username: checker
  from: checker@example.org
  to: ops@example.org
`))
				Expect(err).To(MatchError(ContainSubstring("SMTPPassword")))
			})

			It("rejects an unknown auth mechanism", func() {
				GinkgoT().Setenv("SITECHECK_EMAIL_SMTP_AUTH", "kerberos")
				_, err := config.Load(writeConfig(validConfig))
				Expect(err).To(MatchError(ContainSubstring("SMTPAuth")))
			})

			It("rejects a bad address", func() {
				_, err := config.Load(writeConfig(`
sites:
  - name: a
    url: https://a.example.org
email:
  smtp_host: smtp.example.org
  from: not-an-address
  to: ops@example.org
`))
				Expect(err).To(HaveOccurred())
			})

			It("requires a DSN for postgres", func() {
				GinkgoT().Setenv("SITECHECK_DATABASE_DRIVER", "postgres")
				_, err := config.Load(writeConfig(validConfig))
				Expect(err).To(MatchError(ContainSubstring("URL")))
			})
		})
	})

	Describe("LoadAPI", func() {
		It("does not require the email section", func() {
			cfg, err := config.LoadAPI(writeConfig(`
database:
  driver: sqlite
  path: /var/lib/sitecheck/site-checker.db
api:
  addr: 0.0.0.0:9090
  keys: [k1]
`))
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.API.Addr).To(Equal("0.0.0.0:9090"))
			Expect(cfg.API.Keys).To(ConsistOf("k1"))
		})

		It("still rejects the same file for a check run", func() {
			_, err := config.Load(writeConfig(`
database:
  driver: sqlite
  path: site-checker.db
`))
			Expect(err).To(MatchError(ContainSubstring("Email")))
		})

		It("still validates storage", func() {
			_, err := config.LoadAPI(writeConfig(`
database:
  driver: postgres
`))
			Expect(err).To(MatchError(ContainSubstring("URL")))
		})

		It("rejects a negative rate limit", func() {
			_, err := config.LoadAPI(writeConfig(`
api:
  rate_per_min: -5
`))
			Expect(err).To(MatchError(ContainSubstring("RatePerMin")))
		})
	})
})
