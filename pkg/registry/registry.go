// Package registry inspects pushed images in a remote registry.
package registry

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"coopins.dev/deployctl/pkg/imageref"
)

var ErrTagNotFound = errors.New("tag not found in registry")

// Checker talks to registries using the local docker credentials.
type Checker struct {
	// Keychain resolves credentials. It defaults to authn.DefaultKeychain,
	// which reads the docker config file and credential helpers.
	Keychain authn.Keychain
	// Transport overrides the HTTP transport, for tests.
	Transport http.RoundTripper
}

func (c *Checker) keychain() authn.Keychain {
	if c.Keychain != nil {
		return c.Keychain
	}
	return authn.DefaultKeychain
}

// HasCredentials reports whether credentials for the image's registry are
// stored locally.
func (c *Checker) HasCredentials(img imageref.Image) (bool, error) {
	auth, err := c.keychain().Resolve(img.Repository())
	if err != nil {
		return false, errors.Wrap(err, "resolve registry credentials")
	}
	return auth != authn.Anonymous, nil
}

// Result is the registry state of one tag.
type Result struct {
	Ref    string
	Digest string
}

// Verify checks that every tag of img exists in the registry. It reports the
// tags it found; the error lists every tag it could not confirm.
func (c *Checker) Verify(ctx context.Context, img imageref.Image, tags ...string) ([]Result, error) {
	opts := []remote.Option{
		remote.WithContext(ctx),
		remote.WithAuthFromKeychain(c.keychain()),
	}
	if c.Transport != nil {
		opts = append(opts, remote.WithTransport(c.Transport))
	}

	var (
		results []Result
		errs    *multierror.Error
	)
	for _, tag := range tags {
		ref, err := img.Tag(tag)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		desc, err := remote.Head(ref, opts...)
		if err != nil {
			var terr *transport.Error
			if errors.As(err, &terr) && terr.StatusCode == http.StatusNotFound {
				err = errors.Mark(errors.Newf("%s: not found", ref), ErrTagNotFound)
			} else {
				err = errors.Wrapf(err, "check %s", ref)
			}
			errs = multierror.Append(errs, err)
			continue
		}
		log.Debug().Str("ref", ref.String()).Str("digest", desc.Digest.String()).Msg("found tag in registry")
		results = append(results, Result{Ref: img.Ref(tag), Digest: desc.Digest.String()})
	}
	return results, errs.ErrorOrNil()
}
