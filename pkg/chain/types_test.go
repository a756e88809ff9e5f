package chain

import "testing"

func TestMsgSender(t *testing.T) {
	send, err := NewMsgSend("xpla1sender", "xpla1recipient", []Coin{{Denom: "axpla", Amount: "1"}})
	if err != nil {
		t.Fatalf("NewMsgSend() failed: %v", err)
	}
	got, err := send.Sender()
	if err != nil {
		t.Fatalf("Sender() failed: %v", err)
	}
	if got != "xpla1sender" {
		t.Fatalf("expected xpla1sender, got %s", got)
	}

	exec, err := NewMsgExecuteContract("xpla1caller", "xpla1contract", map[string]any{"transfer": map[string]string{}}, nil)
	if err != nil {
		t.Fatalf("NewMsgExecuteContract() failed: %v", err)
	}
	got, err = exec.Sender()
	if err != nil {
		t.Fatalf("Sender() failed: %v", err)
	}
	if got != "xpla1caller" {
		t.Fatalf("expected xpla1caller, got %s", got)
	}
}

func TestTxEncodeDecode(t *testing.T) {
	msg, err := NewMsgSend("xpla1a", "xpla1b", []Coin{{Denom: "axpla", Amount: "5"}})
	if err != nil {
		t.Fatalf("NewMsgSend() failed: %v", err)
	}
	tx := NewTx([]Msg{msg}, Fee{Amount: []Coin{{Denom: "axpla", Amount: "100"}}, Gas: "200000"}, "memo")

	raw, err := tx.Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	decoded, err := DecodeTx(raw)
	if err != nil {
		t.Fatalf("DecodeTx() failed: %v", err)
	}
	if len(decoded.Msgs) != 1 || decoded.Msgs[0].Type != MsgTypeSend {
		t.Fatalf("unexpected messages after decode: %+v", decoded.Msgs)
	}
	if decoded.Fee.Gas != "200000" || decoded.Memo != "memo" {
		t.Fatalf("fee or memo lost: %+v", decoded)
	}
}
