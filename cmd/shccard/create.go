// Copyright 2025 Dominik Schlosser
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smarthealthcard/shc-go"
	"github.com/smarthealthcard/shc-go/fhirbundle"
	"github.com/smarthealthcard/shc-go/jws"
	"github.com/smarthealthcard/shc-go/keys"
	"github.com/smarthealthcard/shc-go/vc"
)

var (
	createBundle     string
	createKeyPath    string
	createIssuer     string
	createKid        string
	createExpiresSec int64
	createQROptimize bool
	createNoCompress bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a signed SMART Health Card from a FHIR Bundle",
	Long:  "Reads a FHIR Bundle (file path, \"-\" for stdin, or raw JSON), signs it, and prints the resulting compact JWS. Uses an ephemeral P-256 key by default.",
	RunE:  runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createBundle, "bundle", "-", "FHIR Bundle JSON: file path, \"-\" for stdin, or raw JSON")
	createCmd.Flags().StringVar(&createKeyPath, "key", "", "Private key file (PEM or JWK); ephemeral P-256 if omitted")
	createCmd.Flags().StringVar(&createIssuer, "iss", "https://issuer.example.org", "Issuer URL")
	createCmd.Flags().StringVar(&createKid, "kid", "", "Key ID; derived from the public key via RFC 7638 if omitted")
	createCmd.Flags().Int64Var(&createExpiresSec, "expires-in", 0, "Expiration in seconds from now; omitted if 0")
	createCmd.Flags().BoolVar(&createQROptimize, "qr-optimize", true, "Apply the QR-optimizing Bundle rewrite")
	createCmd.Flags().BoolVar(&createNoCompress, "no-compress", false, "Disable payload compression")
}

func runCreate(cmd *cobra.Command, args []string) error {
	bundleJSON, err := readInput(createBundle)
	if err != nil {
		return err
	}

	var bundle fhirbundle.Bundle
	if err := json.Unmarshal([]byte(bundleJSON), &bundle); err != nil {
		return fmt.Errorf("parsing bundle JSON: %w", err)
	}

	privKey, err := loadOrGenerateKey(createKeyPath)
	if err != nil {
		return err
	}

	kid := createKid
	if kid == "" {
		kid, err = jws.ThumbprintKid(&privKey.PublicKey)
		if err != nil {
			return fmt.Errorf("deriving kid: %w", err)
		}
	}

	compress := !createNoCompress
	card := shc.New(shc.Config{
		Issuer:               createIssuer,
		PrivateKey:           privKey,
		PublicKey:            &privKey.PublicKey,
		Kid:                  kid,
		ExpirationSeconds:    createExpiresSec,
		EnableQrOptimization: createQROptimize,
		EnableCompression:    shc.BoolPtr(compress),
		Logger:               cardLogger(),
	})

	token, err := card.Create(bundle, vc.CreateOptions{})
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}

func loadOrGenerateKey(keyPath string) (*ecdsa.PrivateKey, error) {
	if keyPath != "" {
		return keys.LoadPrivateKey(keyPath)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating ephemeral key: %w", err)
	}

	jwk, err := keys.PublicJWK(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(os.Stderr, labelColor.Sprint("Ephemeral signing key (public JWK):"))
	fmt.Fprintln(os.Stderr, jwk)
	return key, nil
}
