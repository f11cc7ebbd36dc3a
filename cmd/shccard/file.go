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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smarthealthcard/shc-go"
	"github.com/smarthealthcard/shc-go/fhirbundle"
	"github.com/smarthealthcard/shc-go/jws"
	"github.com/smarthealthcard/shc-go/keys"
	"github.com/smarthealthcard/shc-go/vc"
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Wrap or unwrap .smart-health-card files",
}

var (
	fileCreateBundle  string
	fileCreateKeyPath string
	fileCreateIssuer  string
)

var fileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Wrap a signed FHIR Bundle into a .smart-health-card file",
	RunE:  runFileCreate,
}

var fileVerifyKeyPath string
var fileVerifyPath string

var fileVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a .smart-health-card file's first credential",
	RunE:  runFileVerify,
}

func init() {
	rootCmd.AddCommand(fileCmd)
	fileCmd.AddCommand(fileCreateCmd)
	fileCmd.AddCommand(fileVerifyCmd)

	fileCreateCmd.Flags().StringVar(&fileCreateBundle, "bundle", "-", "FHIR Bundle JSON: file path, \"-\" for stdin, or raw JSON")
	fileCreateCmd.Flags().StringVar(&fileCreateKeyPath, "key", "", "Private key file (PEM or JWK); ephemeral P-256 if omitted")
	fileCreateCmd.Flags().StringVar(&fileCreateIssuer, "iss", "https://issuer.example.org", "Issuer URL")

	fileVerifyCmd.Flags().StringVar(&fileVerifyPath, "file", "-", ".smart-health-card file: file path, \"-\" for stdin, or raw JSON")
	fileVerifyCmd.Flags().StringVar(&fileVerifyKeyPath, "pubkey", "", "Public key file (PEM or JWK)")
	_ = fileVerifyCmd.MarkFlagRequired("pubkey")
}

func runFileCreate(cmd *cobra.Command, args []string) error {
	bundleJSON, err := readInput(fileCreateBundle)
	if err != nil {
		return err
	}

	var bundle fhirbundle.Bundle
	if err := json.Unmarshal([]byte(bundleJSON), &bundle); err != nil {
		return fmt.Errorf("parsing bundle JSON: %w", err)
	}

	privKey, err := loadOrGenerateKey(fileCreateKeyPath)
	if err != nil {
		return err
	}
	kid, err := jws.ThumbprintKid(&privKey.PublicKey)
	if err != nil {
		return fmt.Errorf("deriving kid: %w", err)
	}

	card := shc.New(shc.Config{
		Issuer:     fileCreateIssuer,
		PrivateKey: privKey,
		PublicKey:  &privKey.PublicKey,
		Kid:        kid,
		Logger:     cardLogger(),
	})

	content, mimeType, err := card.CreateFileBlob(bundle, vc.CreateOptions{})
	if err != nil {
		return err
	}

	printField("content-type", mimeType)
	fmt.Println(content)
	return nil
}

func runFileVerify(cmd *cobra.Command, args []string) error {
	contents, err := readInput(fileVerifyPath)
	if err != nil {
		return err
	}

	pubKey, err := keys.LoadPublicKey(fileVerifyKeyPath)
	if err != nil {
		return err
	}

	card := shc.New(shc.Config{PublicKey: pubKey, Logger: cardLogger()})
	verified, err := card.VerifyFile(contents)
	if err != nil {
		printError(err.Error())
		return err
	}

	printSuccess("signature valid")
	bundleJSON, err := json.MarshalIndent(verified.Bundle, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(bundleJSON))
	return nil
}
