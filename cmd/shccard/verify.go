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
	"github.com/smarthealthcard/shc-go/keys"
)

var (
	verifyKeyPath string
	verifyJWS     string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a SMART Health Card JWS and print its FHIR Bundle",
	Long:  "Verifies the signature on a compact JWS, validates the embedded Verifiable Credential, and prints the recovered FHIR Bundle.",
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyJWS, "jws", "-", "Compact JWS: file path, \"-\" for stdin, or raw string")
	verifyCmd.Flags().StringVar(&verifyKeyPath, "pubkey", "", "Public key file (PEM or JWK)")
	_ = verifyCmd.MarkFlagRequired("pubkey")
}

func runVerify(cmd *cobra.Command, args []string) error {
	token, err := readInput(verifyJWS)
	if err != nil {
		return err
	}

	pubKey, err := keys.LoadPublicKey(verifyKeyPath)
	if err != nil {
		return err
	}

	card := shc.New(shc.Config{PublicKey: pubKey, Logger: cardLogger()})

	verified, err := card.Verify(token)
	if err != nil {
		printError(err.Error())
		return err
	}

	printSuccess("signature valid")
	printSection("Verifiable Credential")
	printField("type", fmt.Sprint(verified.Envelope.VC.Type))
	printField("fhirVersion", verified.Envelope.VC.Subject.FHIRVersion)

	bundleJSON, err := json.MarshalIndent(verified.Bundle, "", "  ")
	if err != nil {
		return err
	}

	printSection("FHIR Bundle")
	fmt.Println(string(bundleJSON))
	return nil
}
