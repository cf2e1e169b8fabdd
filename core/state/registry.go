package state

const (
	registryOwnerKey   = "registry/owner"
	registryRolePrefix = "registry/role/"
)

// RegistryOwner returns the account allowed to update the address registry.
func (m *Manager) RegistryOwner() ([20]byte, error) {
	var owner [20]byte
	if _, err := m.KVGet([]byte(registryOwnerKey), &owner); err != nil {
		return [20]byte{}, err
	}
	return owner, nil
}

// SetRegistryOwner stores the registry owner. Used at genesis.
func (m *Manager) SetRegistryOwner(owner [20]byte) error {
	return m.KVPut([]byte(registryOwnerKey), owner)
}

// RegistryGet returns the address bound to role or the zero address.
func (m *Manager) RegistryGet(role string) ([20]byte, error) {
	var addr [20]byte
	if _, err := m.KVGet(joinKey(registryRolePrefix, []byte(role)), &addr); err != nil {
		return [20]byte{}, err
	}
	return addr, nil
}

// RegistryPut binds role to addr.
func (m *Manager) RegistryPut(role string, addr [20]byte) error {
	return m.KVPut(joinKey(registryRolePrefix, []byte(role)), addr)
}
