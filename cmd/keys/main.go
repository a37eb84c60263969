package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	jwtx "github.com/dropDatabas3/gatejohn/internal/jwt"
	sec "github.com/dropDatabas3/gatejohn/internal/security/secretbox"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "keys",
		Short: "Utilidades de claves para gatejohn",
	}

	var keyPath, kid string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Genera (o carga) la seed Ed25519 de firma y muestra el JWKS",
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := jwtx.LoadOrCreate(keyPath, kid)
			if err != nil {
				return err
			}
			fmt.Printf("kid=%s alg=%s path=%s\n", ks.KID, ks.Alg, keyPath)
			fmt.Println(string(ks.JWKSJSON()))
			return nil
		},
	}
	generate.Flags().StringVar(&keyPath, "path", "signing.seed", "archivo de la seed")
	generate.Flags().StringVar(&kid, "kid", "gj-1", "key id")

	jwks := &cobra.Command{
		Use:   "jwks",
		Short: "Imprime el JWKS de la seed existente",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(keyPath); err != nil {
				return fmt.Errorf("seed no encontrada en %s", keyPath)
			}
			ks, err := jwtx.LoadOrCreate(keyPath, kid)
			if err != nil {
				return err
			}
			fmt.Println(string(ks.JWKSJSON()))
			return nil
		},
	}
	jwks.Flags().StringVar(&keyPath, "path", "signing.seed", "archivo de la seed")
	jwks.Flags().StringVar(&kid, "kid", "gj-1", "key id")

	genMaster := &cobra.Command{
		Use:   "gen-secretbox",
		Short: "Genera una clave de 32 bytes para SECRETBOX_MASTER_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := make([]byte, 32)
			if _, err := rand.Read(key); err != nil {
				return err
			}
			fmt.Printf("SECRETBOX_MASTER_KEY=%s\n", base64.StdEncoding.EncodeToString(key))
			return nil
		},
	}

	encrypt := &cobra.Command{
		Use:   "encrypt <plaintext>",
		Short: "Cifra un client secret con SECRETBOX_MASTER_KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := sec.Encrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Println(enc)
			return nil
		},
	}

	root.AddCommand(generate, jwks, genMaster, encrypt)
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
