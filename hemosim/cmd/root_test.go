package cmd

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Root command", func() {
	var (
		stdout *bytes.Buffer
		runner *Runner
	)

	BeforeEach(func() {
		stdout = new(bytes.Buffer)
		runner = NewRunner(stdout, GinkgoWriter)
	})

	It("should run with flags", func() {
		cmd := NewRootCmd(runner, DefaultOptions())
		cmd.SetArgs([]string{
			"--headless",
			"--seed", "3",
			"--max-cycles", "2",
			"--leak-probability", "0",
		})

		Expect(cmd.Execute()).To(Succeed())

		out := stdout.String()
		Expect(out).To(ContainSubstring("--- Iteration sequence number 2 ---"))
		Expect(out).To(ContainSubstring("completed successfully"))
	})

	It("should reject positional arguments", func() {
		cmd := NewRootCmd(runner, DefaultOptions())
		cmd.SetArgs([]string{"extra"})
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)

		Expect(cmd.Execute()).NotTo(Succeed())
		Expect(stdout.String()).To(BeEmpty())
	})

	It("should reject invalid flag values", func() {
		cmd := NewRootCmd(runner, DefaultOptions())
		cmd.SetArgs([]string{"--headless", "--max-cycles", "0"})
		cmd.SetOut(GinkgoWriter)
		cmd.SetErr(GinkgoWriter)

		Expect(cmd.Execute()).NotTo(Succeed())
	})
})
