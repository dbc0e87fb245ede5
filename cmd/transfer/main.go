// Command transfer is the actor-side client. It creates account keys,
// mints genesis funds in development setups, sends transfers by driving
// the three protocol steps against a replica group, and queries balances.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/example/at2/api/gen/transferpb"
	"github.com/example/at2/internal/actor"
	"github.com/example/at2/internal/history"
	"github.com/example/at2/internal/identity"
	"github.com/example/at2/internal/logging"
	"github.com/example/at2/internal/node"
	"github.com/example/at2/internal/security"
	"github.com/example/at2/internal/threshold"
	"github.com/example/at2/internal/transfer"
)

// dialFlags is the connection configuration shared by every subcommand
// that talks to replicas.
type dialFlags struct {
	replicas string
	tlsCA    string
	tlsCert  string
	tlsKey   string
}

func (d *dialFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&d.replicas, "replicas", "", "comma-separated replica addresses")
	fs.StringVar(&d.tlsCA, "tls-ca", "", "CA certificate for verifying replicas")
	fs.StringVar(&d.tlsCert, "tls-cert", "", "client certificate for mutual TLS")
	fs.StringVar(&d.tlsKey, "tls-key", "", "client key for mutual TLS")
}

func (d *dialFlags) credentials() (grpc.DialOption, error) {
	if d.tlsCA == "" && d.tlsCert == "" {
		return grpc.WithTransportCredentials(insecure.NewCredentials()), nil
	}
	tlsCfg, err := security.LoadClientTLSConfig(security.TLSConfig{
		CertFile: d.tlsCert,
		KeyFile:  d.tlsKey,
		CAFile:   d.tlsCA,
	})
	if err != nil {
		return nil, err
	}
	return grpc.WithTransportCredentials(credentials.NewTLS(tlsCfg)), nil
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "newaccount":
		err = runNewAccount(args)
	case "genesis":
		err = runGenesis(args)
	case "send":
		err = runSend(args)
	case "balance":
		err = runBalance(args)
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: transfer <newaccount|genesis|send|balance> [flags]")
	os.Exit(2)
}

func runNewAccount(args []string) error {
	fs := flag.NewFlagSet("newaccount", flag.ExitOnError)
	keyPath := fs.String("key", "actor.key", "path to write the account key")
	fs.Parse(args)

	kp := identity.Generate()
	if err := kp.SaveKeyFile(*keyPath); err != nil {
		return err
	}
	id, err := kp.AccountID()
	if err != nil {
		return err
	}
	fmt.Println(id.String())
	return nil
}

// runGenesis signs a mint certificate with every replica key file in a
// directory and propagates the credit. Development only; production groups
// never co-locate their shares.
func runGenesis(args []string) error {
	fs := flag.NewFlagSet("genesis", flag.ExitOnError)
	keyDir := fs.String("keys", ".", "directory holding replica-*.json key files")
	to := fs.String("to", "", "recipient account id (hex)")
	amount := fs.String("amount", "", "amount to mint")
	var dial dialFlags
	dial.register(fs)
	fs.Parse(args)

	recipient, err := transfer.ParseAccountID(*to)
	if err != nil {
		return err
	}
	money, err := transfer.ParseMoney(*amount)
	if err != nil {
		return err
	}

	paths, err := filepath.Glob(filepath.Join(*keyDir, "replica-*.json"))
	if err != nil || len(paths) == 0 {
		return fmt.Errorf("no replica key files in %s", *keyDir)
	}
	var signers []*threshold.Signer
	for _, p := range paths {
		s, err := threshold.LoadKeyFile(p)
		if err != nil {
			return err
		}
		signers = append(signers, s)
	}
	group := signers[0].Group()

	tr := transfer.NewTransfer(transfer.GenesisAccount, recipient, money, 1)
	prop := transfer.DebitProposal{Transfer: tr}
	agg := threshold.NewAggregator(group)
	for _, s := range signers {
		share, err := s.Sign(prop.SigningBytes())
		if err != nil {
			return err
		}
		if _, err := agg.AddShare(tr.ID, prop.SigningBytes(), share); err != nil {
			return err
		}
	}
	sig, err := agg.TryAggregate(tr.ID)
	if err != nil {
		return err
	}
	cert := transfer.Certificate{Debit: prop, Sig: sig}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	clients, closeAll, err := dialReplicas(dial)
	if err != nil {
		return err
	}
	defer closeAll()

	req := &pb.PropagateCreditRequest{
		Certificate: node.CertificateToWire(cert),
		Recipient:   recipient[:],
		Amount:      uint64(money),
	}
	for _, c := range clients {
		if _, err := c.PropagateCredit(ctx, req); err != nil {
			return err
		}
	}
	fmt.Printf("minted %s to %s\n", money, recipient)
	return nil
}

func runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	keyPath := fs.String("key", "actor.key", "path to the account key")
	groupPath := fs.String("group", "group.json", "path to the group file")
	to := fs.String("to", "", "recipient account id (hex)")
	amount := fs.String("amount", "", "amount to send")
	var dial dialFlags
	dial.register(fs)
	fs.Parse(args)

	recipient, err := transfer.ParseAccountID(*to)
	if err != nil {
		return err
	}
	money, err := transfer.ParseMoney(*amount)
	if err != nil {
		return err
	}
	kp, err := identity.LoadKeyFile(*keyPath)
	if err != nil {
		return err
	}
	group, err := threshold.LoadGroupFile(*groupPath)
	if err != nil {
		return err
	}
	act, err := actor.New(kp, group, logging.New("warn"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	clients, closeAll, err := dialReplicas(dial)
	if err != nil {
		return err
	}
	defer closeAll()

	// Pull the committed view of the account before proposing.
	if err := synchronize(ctx, act, clients[0]); err != nil {
		return err
	}

	prop, err := act.InitiateTransfer(recipient, money)
	if err != nil {
		return err
	}

	// Collect shares until the certificate aggregates.
	var credit *transfer.CreditProposal
	for _, c := range clients {
		resp, err := c.ValidateDebit(ctx, &pb.ValidateDebitRequest{
			Proposal: node.ProposalToWire(prop),
		})
		if err != nil {
			log.Printf("replica rejected debit: %v", err)
			continue
		}
		share, err := node.ShareFromWire(resp.Share)
		if err != nil {
			return err
		}
		if credit, err = act.ReceiveShare(share); err != nil {
			return err
		}
		if credit != nil {
			break
		}
	}
	if credit == nil {
		act.Abandon(prop.Transfer.ID)
		return transfer.ErrQuorumNotReached
	}

	cert, _ := act.Certificate(prop.Transfer.ID)
	certMsg := node.CertificateToWire(cert)
	for _, c := range clients {
		if _, err := c.RegisterCertificate(ctx, &pb.RegisterCertificateRequest{
			Certificate: certMsg,
		}); err != nil {
			return err
		}
	}
	for _, c := range clients {
		if _, err := c.PropagateCredit(ctx, &pb.PropagateCreditRequest{
			Certificate: certMsg,
			Recipient:   recipient[:],
			Amount:      uint64(money),
		}); err != nil {
			return err
		}
	}
	if err := act.CommitTransfer(cert); err != nil {
		return err
	}
	fmt.Printf("sent %s to %s (transfer %s)\n", money, recipient, prop.Transfer.ID)
	return nil
}

func runBalance(args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	account := fs.String("account", "", "account id (hex)")
	var dial dialFlags
	dial.register(fs)
	fs.Parse(args)

	id, err := transfer.ParseAccountID(*account)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	clients, closeAll, err := dialReplicas(dial)
	if err != nil {
		return err
	}
	defer closeAll()

	resp, err := clients[0].GetBalance(ctx, &pb.GetBalanceRequest{Account: id[:]})
	if err != nil {
		return err
	}
	fmt.Println(transfer.Money(resp.Balance))
	return nil
}

func synchronize(ctx context.Context, act *actor.Actor, c pb.TransferServiceClient) error {
	id := act.ID()
	resp, err := c.GetHistory(ctx, &pb.GetHistoryRequest{Account: id[:]})
	if err != nil {
		return err
	}
	remote := history.New(id)
	for _, m := range resp.Records {
		rec, err := node.RecordFromWire(m)
		if err != nil {
			return err
		}
		if err := remote.Append(rec); err != nil {
			return err
		}
	}
	return act.Synchronize(remote)
}

func dialReplicas(d dialFlags) ([]pb.TransferServiceClient, func(), error) {
	creds, err := d.credentials()
	if err != nil {
		return nil, nil, err
	}
	parts := strings.Split(d.replicas, ",")
	var conns []*grpc.ClientConn
	var clients []pb.TransferServiceClient
	closeAll := func() {
		for _, c := range conns {
			c.Close()
		}
	}
	for _, addr := range parts {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		conn, err := grpc.Dial(addr, creds)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		conns = append(conns, conn)
		clients = append(clients, pb.NewTransferServiceClient(conn))
	}
	if len(clients) == 0 {
		closeAll()
		return nil, nil, fmt.Errorf("no replica addresses given")
	}
	return clients, closeAll, nil
}
