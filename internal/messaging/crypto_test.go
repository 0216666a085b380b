package messaging

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Cipher", func() {
	var cipher *Cipher

	ginkgo.BeforeEach(func() {
		var err error
		cipher, err = NewCipher("a-master-key-for-testing")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
	})

	ginkgo.It("should round-trip a secret", func() {
		encrypted, err := cipher.Encrypt("channel-secret-value")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(encrypted).ToNot(gomega.Equal("channel-secret-value"))

		decrypted, err := cipher.Decrypt(encrypted)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(decrypted).To(gomega.Equal("channel-secret-value"))
	})

	ginkgo.It("should produce a different ciphertext per encryption", func() {
		first, err := cipher.Encrypt("same-plaintext")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		second, err := cipher.Encrypt("same-plaintext")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		gomega.Expect(first).ToNot(gomega.Equal(second))
	})

	ginkgo.It("should pass empty strings through unchanged", func() {
		encrypted, err := cipher.Encrypt("")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(encrypted).To(gomega.BeEmpty())

		decrypted, err := cipher.Decrypt("")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(decrypted).To(gomega.BeEmpty())
	})

	ginkgo.It("should refuse ciphertext from another key", func() {
		other, err := NewCipher("a-completely-different-key")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		encrypted, err := other.Encrypt("secret")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		_, err = cipher.Decrypt(encrypted)
		gomega.Expect(err).To(gomega.HaveOccurred())
	})

	ginkgo.It("should refuse malformed ciphertext", func() {
		_, err := cipher.Decrypt("not base64!!!")
		gomega.Expect(err).To(gomega.HaveOccurred())
	})
})
